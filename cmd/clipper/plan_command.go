package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"clipper/internal/command"
	"clipper/internal/config"
	"clipper/internal/media/probe"
	"clipper/internal/naming"
	"clipper/internal/plan"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	flags := &splitFlags{}
	var showArgs bool

	cmd := &cobra.Command{
		Use:   "plan <input>",
		Short: "Show the planned clips without running ffmpeg",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			settings, err := flags.resolve(cmd, cfg)
			if err != nil {
				return err
			}
			return runPlan(cmd, cfg, settings, args[0], showArgs)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&showArgs, "args", false, "Also print the ffmpeg arguments for each clip")
	return cmd
}

func runPlan(cmd *cobra.Command, cfg *config.Config, settings clipSettings, inputPath string, showArgs bool) error {
	out := cmd.OutOrStdout()

	inputPath, err := config.ExpandPath(inputPath)
	if err != nil {
		return err
	}
	inspected, err := probe.Inspect(cmd.Context(), cfg.Tools.FFprobe, inputPath)
	if err != nil {
		return err
	}
	duration := inspected.DurationSeconds()

	planSettings, err := settings.planSettings()
	if err != nil {
		return err
	}
	planned, err := plan.Plan(duration, settings.markers, planSettings)
	if err != nil {
		return err
	}

	sourceName := filepath.Base(inputPath)
	namer := naming.NewNamer(settings.template, sourceName, "")
	mode := command.Route(settings.mode, settings.transforms)

	names := make([]string, len(planned.Intervals))
	rows := make([][]string, 0, len(planned.Intervals))
	for i, iv := range planned.Intervals {
		names[i] = namer.ClipName(iv)
		rows = append(rows, []string{
			fmt.Sprintf("%d", iv.Index+1),
			names[i],
			formatTimecode(iv.Start),
			formatTimecode(iv.End),
			formatTimecode(iv.Length()),
		})
	}

	fmt.Fprintf(out, "Source: %s (%s, mode %s)\n", sourceName, formatTimecode(duration), mode)
	fmt.Fprintln(out, renderTable(
		[]string{"#", "Clip", "Start", "End", "Length"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight},
	))
	if planned.DiscardedSeconds > 0 {
		fmt.Fprintf(out, "Warning: a %.1fs tail would be dropped under the discard policy\n", planned.DiscardedSeconds)
	}

	if showArgs {
		fmt.Fprintln(out)
		for i, iv := range planned.Intervals {
			args := command.BuildClipArgs(iv, settings.mode, settings.transforms, sourceName, names[i])
			fmt.Fprintf(out, "%s\n", formatArgv(args))
		}
	}
	return nil
}
