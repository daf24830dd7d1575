package config

// Default returns the built-in configuration used before any file is applied.
func Default() Config {
	return Config{
		Trim: Trim{
			FixedDuration:      60,
			Remainder:          "merge",
			RemainderThreshold: 10,
		},
		Transforms: Transforms{
			Quality: "medium",
		},
		Output: Output{
			Dir:        "~/Videos/clipper",
			Template:   "{name}_part{part}",
			Mode:       "passthrough",
			Zip:        false,
			Thumbnails: true,
		},
		Tools: Tools{
			FFmpeg:  "ffmpeg",
			FFprobe: "ffprobe",
		},
		Logging: Logging{
			Format: "console",
			Level:  "info",
		},
		History: History{
			Enabled: true,
			Path:    "~/.local/share/clipper/history.db",
		},
	}
}
