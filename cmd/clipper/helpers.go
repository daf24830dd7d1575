package main

import (
	"fmt"
	"math"
	"strings"

	"clipper/internal/command"
	"clipper/internal/plan"
)

// clipSettings bundles the per-run options shared by the split and plan
// commands, resolved from config defaults and flag overrides.
type clipSettings struct {
	interval   float64
	markers    []float64
	remainder  string
	threshold  float64
	mode       command.Mode
	transforms command.Transforms
	template   string
}

func (s clipSettings) planSettings() (plan.Settings, error) {
	policy, err := plan.ParseRemainderPolicy(s.remainder)
	if err != nil {
		return plan.Settings{}, err
	}
	return plan.Settings{
		FixedDuration:      s.interval,
		RemainderThreshold: s.threshold,
		Remainder:          policy,
	}, nil
}

// formatTimecode renders seconds as m:ss.mmm for table output.
func formatTimecode(seconds float64) string {
	whole := int(math.Floor(seconds))
	millis := int(math.Round((seconds - float64(whole)) * 1000))
	if millis >= 1000 {
		whole++
		millis -= 1000
	}
	return fmt.Sprintf("%d:%02d.%03d", whole/60, whole%60, millis)
}

func formatArgv(args []string) string {
	quoted := make([]string, 0, len(args))
	for _, arg := range args {
		if strings.ContainsAny(arg, " '\"[];") {
			quoted = append(quoted, fmt.Sprintf("%q", arg))
			continue
		}
		quoted = append(quoted, arg)
	}
	return "ffmpeg " + strings.Join(quoted, " ")
}
