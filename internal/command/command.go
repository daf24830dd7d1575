package command

import (
	"fmt"
	"strconv"
	"strings"

	"clipper/internal/plan"
)

// Mode selects the processing path for a clip.
type Mode string

const (
	// ModePassthrough copies streams verbatim without re-encoding.
	ModePassthrough Mode = "passthrough"
	// ModeReencode decodes and re-encodes, enabling transforms.
	ModeReencode Mode = "reencode"
)

// ParseMode normalizes a user-supplied mode string. Empty input selects
// passthrough.
func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(ModePassthrough):
		return ModePassthrough, nil
	case string(ModeReencode):
		return ModeReencode, nil
	default:
		return "", fmt.Errorf("mode: unsupported value %q", value)
	}
}

// Quality selects the encoder quality tier for re-encoded clips.
type Quality string

const (
	QualityLow    Quality = "low"
	QualityMedium Quality = "medium"
	QualityHigh   Quality = "high"
)

// ParseQuality normalizes a user-supplied quality string. Empty input selects
// medium.
func ParseQuality(value string) (Quality, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(QualityMedium):
		return QualityMedium, nil
	case string(QualityLow):
		return QualityLow, nil
	case string(QualityHigh):
		return QualityHigh, nil
	default:
		return "", fmt.Errorf("quality: unsupported value %q", value)
	}
}

// crf returns the constant-rate-factor for the tier; lossiness decreases as
// quality increases.
func (q Quality) crf() int {
	switch q {
	case QualityHigh:
		return 20
	case QualityLow:
		return 28
	default:
		return 23
	}
}

const (
	encodePreset = "fast"
	audioCodec   = "aac"
	audioBitrate = "128k"
	loudnormSpec = "loudnorm=I=-16:TP=-1.5:LRA=11"
)

// Transforms are independent optional toggles applied during re-encoding.
type Transforms struct {
	// WatermarkText draws the given text bottom-right; empty disables it.
	WatermarkText string
	// ReframeTo916 reframes to a vertical 9:16 canvas with a blurred fill.
	ReframeTo916 bool
	// NormalizeAudio applies loudness normalization.
	NormalizeAudio bool
	Quality        Quality
}

// Active reports whether any transform is enabled.
func (t Transforms) Active() bool {
	return t.ReframeTo916 || t.NormalizeAudio || strings.TrimSpace(t.WatermarkText) != ""
}

// Route is the total mode-selection function. Stream copy cannot apply
// filters, so any active transform forces the re-encode path even when
// passthrough was requested.
func Route(mode Mode, transforms Transforms) Mode {
	if mode == ModePassthrough && !transforms.Active() {
		return ModePassthrough
	}
	return ModeReencode
}

// BuildClipArgs constructs the ordered argv for one clip. It is pure
// construction: no I/O, and it never fails for valid inputs.
func BuildClipArgs(iv plan.Interval, mode Mode, transforms Transforms, inputName, outputName string) []string {
	if Route(mode, transforms) == ModePassthrough {
		return passthroughArgs(iv, inputName, outputName)
	}
	return reencodeArgs(iv, transforms, inputName, outputName)
}

// BuildThumbnailArgs constructs the argv extracting a single still frame at
// the interval start.
func BuildThumbnailArgs(iv plan.Interval, inputName, outputName string) []string {
	return []string{
		"-ss", FormatSeconds(iv.Start),
		"-i", inputName,
		"-frames:v", "1",
		"-q:v", "2",
		outputName,
	}
}

func passthroughArgs(iv plan.Interval, inputName, outputName string) []string {
	return []string{
		"-ss", FormatSeconds(iv.Start),
		"-i", inputName,
		"-t", FormatSeconds(iv.Length()),
		"-c", "copy",
		outputName,
	}
}

func reencodeArgs(iv plan.Interval, transforms Transforms, inputName, outputName string) []string {
	args := []string{
		"-ss", FormatSeconds(iv.Start),
		"-i", inputName,
		"-t", FormatSeconds(iv.Length()),
	}

	graph := videoGraph(transforms)
	if graph.Empty() {
		args = append(args, "-map", "0:v")
	} else {
		args = append(args, "-filter_complex", graph.Render(), "-map", graph.OutputLabel())
	}

	// Audio is mapped as optional: a silent source is not an error.
	args = append(args, "-map", "0:a?")
	if transforms.NormalizeAudio {
		args = append(args, "-af", loudnormSpec)
	}

	args = append(args,
		"-c:v", "libx264",
		"-crf", strconv.Itoa(transforms.Quality.crf()),
		"-preset", encodePreset,
		"-pix_fmt", "yuv420p",
		"-c:a", audioCodec,
		"-b:a", audioBitrate,
		outputName,
	)
	return args
}

// FormatSeconds serializes a time value with fixed millisecond precision so
// repeated invocations never drift through float formatting.
func FormatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
