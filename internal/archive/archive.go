// Package archive combines named artifact blobs into a single downloadable
// payload. The job driver supplies names already resolved through the naming
// template, so entries are unique by construction.
package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"strings"
)

// Entry is one named artifact destined for the combined archive.
type Entry struct {
	Name string
	Data []byte
}

// Builder combines ordered entries into one archive blob.
type Builder interface {
	Combine(entries []Entry) ([]byte, error)
}

// Zip implements Builder with a standard zip container.
type Zip struct{}

// Combine writes every entry, in order, into a zip archive.
func (Zip) Combine(entries []Entry) ([]byte, error) {
	if len(entries) == 0 {
		return nil, errors.New("archive: no entries to combine")
	}

	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	for i, entry := range entries {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			return nil, fmt.Errorf("archive: entry %d has no name", i)
		}
		dst, err := writer.Create(name)
		if err != nil {
			return nil, fmt.Errorf("archive: add %s: %w", name, err)
		}
		if _, err := dst.Write(entry.Data); err != nil {
			return nil, fmt.Errorf("archive: write %s: %w", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("archive: finalize: %w", err)
	}
	return buf.Bytes(), nil
}

var _ Builder = Zip{}
