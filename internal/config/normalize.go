package config

import "strings"

// normalize expands paths and lowercases enumerated values so validation and
// consumers see one canonical form.
func (c *Config) normalize() error {
	var err error
	if c.Output.Dir, err = expandPath(strings.TrimSpace(c.Output.Dir)); err != nil {
		return err
	}
	if c.History.Path, err = expandPath(strings.TrimSpace(c.History.Path)); err != nil {
		return err
	}

	c.Trim.Remainder = strings.ToLower(strings.TrimSpace(c.Trim.Remainder))
	c.Transforms.Quality = strings.ToLower(strings.TrimSpace(c.Transforms.Quality))
	c.Output.Mode = strings.ToLower(strings.TrimSpace(c.Output.Mode))
	c.Output.Template = strings.TrimSpace(c.Output.Template)
	c.Transforms.WatermarkText = strings.TrimSpace(c.Transforms.WatermarkText)
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	if c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg); c.Tools.FFmpeg == "" {
		c.Tools.FFmpeg = "ffmpeg"
	}
	if c.Tools.FFprobe = strings.TrimSpace(c.Tools.FFprobe); c.Tools.FFprobe == "" {
		c.Tools.FFprobe = "ffprobe"
	}
	return nil
}
