package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPlanning marks invalid planner input; the job never starts.
	ErrPlanning = errors.New("planning error")
	// ErrEngine marks a failed engine invocation for a main clip; fatal to
	// the job, already-produced artifacts are retained.
	ErrEngine = errors.New("engine execution error")
	// ErrThumbnail marks a failed still-frame extraction; recovered locally.
	ErrThumbnail = errors.New("thumbnail error")
	// ErrValidation marks rejected user input outside the planner.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks unusable configuration values.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes job context while tagging it with
// the provided marker for later classification. The marker should be one of
// the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrValidation
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
