package naming

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"clipper/internal/plan"
)

// DefaultTemplate names clips after the source with a padded part ordinal.
const DefaultTemplate = "{name}_part{part}"

// SourceStem returns the source filename without directory or extension.
func SourceStem(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Render substitutes the recognized template tokens for one interval:
// {name} source stem, {index} 1-based unpadded ordinal, {part} 1-based
// ordinal zero-padded to three digits, {start} and {end} floored integer
// seconds. Unrecognized tokens pass through literally.
func Render(template, sourceName string, iv plan.Interval) string {
	replacer := strings.NewReplacer(
		"{name}", SourceStem(sourceName),
		"{index}", strconv.Itoa(iv.Index+1),
		"{part}", fmt.Sprintf("%03d", iv.Index+1),
		"{start}", strconv.Itoa(int(math.Floor(iv.Start))),
		"{end}", strconv.Itoa(int(math.Floor(iv.End))),
	)
	return replacer.Replace(template)
}

// Namer issues unique artifact names for one job.
type Namer struct {
	template string
	source   string
	ext      string
	seen     map[string]struct{}
}

// NewNamer builds a namer for one job. ext carries the leading dot; when
// empty, the source extension is reused (falling back to .mp4).
func NewNamer(template, sourceName, ext string) *Namer {
	if strings.TrimSpace(template) == "" {
		template = DefaultTemplate
	}
	if ext == "" {
		ext = filepath.Ext(sourceName)
	}
	if ext == "" {
		ext = ".mp4"
	}
	namer := &Namer{
		template: template,
		source:   sourceName,
		ext:      ext,
		seen:     make(map[string]struct{}),
	}
	// The source shares the job's file store with the clips; its entry name
	// is already taken, so a template like {name} cannot reissue it.
	if base := filepath.Base(strings.TrimSpace(sourceName)); base != "" && base != "." {
		namer.seen[base] = struct{}{}
	}
	return namer
}

// ClipName renders the template for the interval and disambiguates with the
// interval ordinal whenever the rendered name was already issued.
func (n *Namer) ClipName(iv plan.Interval) string {
	base := strings.TrimSpace(Render(n.template, n.source, iv))
	if base == "" {
		base = fmt.Sprintf("clip_%03d", iv.Index+1)
	}
	name := base + n.ext
	if _, taken := n.seen[name]; taken {
		name = fmt.Sprintf("%s_%d%s", base, iv.Index+1, n.ext)
	}
	n.seen[name] = struct{}{}
	return name
}

// ThumbnailFor derives the still-frame name from an issued clip name. Clip
// names are unique per job, so thumbnails are too.
func ThumbnailFor(clipName string) string {
	return strings.TrimSuffix(clipName, filepath.Ext(clipName)) + "_thumb.jpg"
}
