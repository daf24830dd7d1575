package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"clipper/internal/archive"
	"clipper/internal/clipjob"
	"clipper/internal/command"
	"clipper/internal/config"
	"clipper/internal/engine"
	"clipper/internal/history"
	"clipper/internal/logging"
	"clipper/internal/media/probe"
	"clipper/internal/naming"
	"clipper/internal/plan"
	"clipper/internal/services"
)

// splitFlags are shared between split and plan; config supplies the default
// for any flag the user leaves untouched.
type splitFlags struct {
	interval  float64
	markers   []float64
	remainder string
	threshold float64
	mode      string
	watermark string
	reframe   bool
	normalize bool
	quality   string
	template  string
}

func (f *splitFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64VarP(&f.interval, "interval", "i", 0, "Clip length in seconds (fixed-interval mode)")
	cmd.Flags().Float64SliceVarP(&f.markers, "marker", "m", nil, "Cut point in seconds; repeatable, overrides --interval")
	cmd.Flags().StringVar(&f.remainder, "remainder", "", "Short-tail policy: merge or discard")
	cmd.Flags().Float64Var(&f.threshold, "threshold", 0, "Tail shorter than this many seconds triggers the remainder policy")
	cmd.Flags().StringVar(&f.mode, "mode", "", "Processing mode: passthrough or reencode")
	cmd.Flags().StringVar(&f.watermark, "watermark", "", "Watermark text drawn bottom-right (forces re-encode)")
	cmd.Flags().BoolVar(&f.reframe, "reframe", false, "Reframe to vertical 9:16 with blurred fill (forces re-encode)")
	cmd.Flags().BoolVar(&f.normalize, "normalize", false, "Normalize audio loudness (forces re-encode)")
	cmd.Flags().StringVar(&f.quality, "quality", "", "Re-encode quality: low, medium, or high")
	cmd.Flags().StringVar(&f.template, "template", "", "Clip naming template ({name} {index} {part} {start} {end})")
}

func (f *splitFlags) resolve(cmd *cobra.Command, cfg *config.Config) (clipSettings, error) {
	settings := clipSettings{
		interval:  f.interval,
		markers:   f.markers,
		remainder: f.remainder,
		threshold: f.threshold,
		template:  f.template,
	}
	if !cmd.Flags().Changed("interval") {
		settings.interval = cfg.Trim.FixedDuration
	}
	if !cmd.Flags().Changed("remainder") {
		settings.remainder = cfg.Trim.Remainder
	}
	if !cmd.Flags().Changed("threshold") {
		settings.threshold = cfg.Trim.RemainderThreshold
	}
	if !cmd.Flags().Changed("template") {
		settings.template = cfg.Output.Template
	}

	modeValue := f.mode
	if !cmd.Flags().Changed("mode") {
		modeValue = cfg.Output.Mode
	}
	mode, err := command.ParseMode(modeValue)
	if err != nil {
		return clipSettings{}, err
	}
	settings.mode = mode

	qualityValue := f.quality
	if !cmd.Flags().Changed("quality") {
		qualityValue = cfg.Transforms.Quality
	}
	quality, err := command.ParseQuality(qualityValue)
	if err != nil {
		return clipSettings{}, err
	}

	settings.transforms = command.Transforms{
		WatermarkText:  f.watermark,
		ReframeTo916:   f.reframe,
		NormalizeAudio: f.normalize,
		Quality:        quality,
	}
	if !cmd.Flags().Changed("watermark") {
		settings.transforms.WatermarkText = cfg.Transforms.WatermarkText
	}
	if !cmd.Flags().Changed("reframe") {
		settings.transforms.ReframeTo916 = cfg.Transforms.ReframeVertical
	}
	if !cmd.Flags().Changed("normalize") {
		settings.transforms.NormalizeAudio = cfg.Transforms.NormalizeAudio
	}
	return settings, nil
}

func newSplitCommand(ctx *commandContext) *cobra.Command {
	flags := &splitFlags{}
	var outputDir string
	var zipFlag bool
	var thumbnails bool

	cmd := &cobra.Command{
		Use:   "split <input>",
		Short: "Split a video into clips and write them to the output directory",
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
			if !cmd.Flags().Changed("output") {
				outputDir = cfg.Output.Dir
			}
			if !cmd.Flags().Changed("zip") {
				zipFlag = cfg.Output.Zip
			}
			if !cmd.Flags().Changed("thumbnails") {
				thumbnails = cfg.Output.Thumbnails
			}
			return runSplit(cmd, ctx, settings, args[0], outputDir, zipFlag, thumbnails)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory for clips and thumbnails")
	cmd.Flags().BoolVar(&zipFlag, "zip", false, "Also write a zip archive containing every artifact")
	cmd.Flags().BoolVar(&thumbnails, "thumbnails", true, "Extract a still-frame thumbnail per clip")
	return cmd
}

func runSplit(cmd *cobra.Command, ctx *commandContext, settings clipSettings, inputPath, outputDir string, zipFlag, thumbnails bool) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.logger()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	outputDir, err = config.ExpandPath(outputDir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory %q: %w", outputDir, err)
	}

	inputPath, err = config.ExpandPath(inputPath)
	if err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	inspected, err := probe.Inspect(sigCtx, cfg.Tools.FFprobe, inputPath)
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

	// The engine is an exclusive resource; one job at a time per output dir.
	lock := flock.New(filepath.Join(outputDir, ".clipper.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire output lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another clipper job is already writing to %s", outputDir)
	}
	defer func() { _ = lock.Unlock() }()

	jobID := uuid.NewString()
	jobCtx := services.WithJobID(sigCtx, jobID)
	workDir := filepath.Join(os.TempDir(), "clipper-"+jobID)
	eng, err := engine.NewFFmpeg(workDir, engine.WithBinary(cfg.Tools.FFmpeg))
	if err != nil {
		return err
	}
	defer os.RemoveAll(workDir)

	sourceName := filepath.Base(inputPath)
	sourceData, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read input %s: %w", inputPath, err)
	}
	if err := eng.WriteFile(sourceName, sourceData); err != nil {
		return err
	}

	driverOpts := []clipjob.Option{}
	var bar *progressbar.ProgressBar
	if stdoutIsTerminal() {
		bar = progressbar.NewOptions(len(planned.Intervals),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("clipping"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		driverOpts = append(driverOpts, clipjob.WithProgress(func(index, total int, clipName string) {
			bar.Describe(clipName)
			_ = bar.Set(index)
		}))
	}

	driver := clipjob.New(eng, logger, driverOpts...)
	started := time.Now()
	outcome, runErr := driver.Run(jobCtx, clipjob.Request{
		SourceName: sourceName,
		Template:   settings.template,
		Mode:       settings.mode,
		Transforms: settings.transforms,
		Thumbnails: thumbnails,
	}, planned)
	if bar != nil {
		_ = bar.Set(len(outcome.Artifacts))
		_ = bar.Finish()
	}

	writeErr := writeArtifacts(outputDir, outcome.Artifacts)
	if zipFlag && outcome.Status == clipjob.StatusCompleted && writeErr == nil {
		writeErr = writeArchive(outputDir, sourceName, outcome.Artifacts)
	}

	recordHistory(cfg, logger, history.Job{
		ID:               jobID,
		Source:           sourceName,
		Mode:             string(command.Route(settings.mode, settings.transforms)),
		Status:           historyStatus(outcome.Status),
		ClipCount:        len(outcome.Artifacts),
		DiscardedSeconds: outcome.DiscardedSeconds,
		ErrorMessage:     errorMessage(runErr),
		CreatedAt:        started.UTC(),
		Artifacts:        historyArtifacts(outcome.Artifacts),
	})

	printOutcome(out, outcome, outputDir)
	if runErr != nil {
		return runErr
	}
	return writeErr
}

func writeArtifacts(outputDir string, artifacts []clipjob.Artifact) error {
	for _, artifact := range artifacts {
		if err := os.WriteFile(filepath.Join(outputDir, artifact.Name), artifact.Data, 0o644); err != nil {
			return fmt.Errorf("write clip %s: %w", artifact.Name, err)
		}
		if artifact.ThumbnailName != "" {
			if err := os.WriteFile(filepath.Join(outputDir, artifact.ThumbnailName), artifact.ThumbnailData, 0o644); err != nil {
				return fmt.Errorf("write thumbnail %s: %w", artifact.ThumbnailName, err)
			}
		}
	}
	return nil
}

func writeArchive(outputDir, sourceName string, artifacts []clipjob.Artifact) error {
	entries := make([]archive.Entry, 0, len(artifacts)*2)
	for _, artifact := range artifacts {
		entries = append(entries, archive.Entry{Name: artifact.Name, Data: artifact.Data})
		if artifact.ThumbnailName != "" {
			entries = append(entries, archive.Entry{Name: artifact.ThumbnailName, Data: artifact.ThumbnailData})
		}
	}
	blob, err := archive.Zip{}.Combine(entries)
	if err != nil {
		return err
	}
	name := naming.SourceStem(sourceName) + "_clips.zip"
	if err := os.WriteFile(filepath.Join(outputDir, name), blob, 0o644); err != nil {
		return fmt.Errorf("write archive %s: %w", name, err)
	}
	return nil
}

// recordHistory is best effort: a broken history database never fails a job
// that already produced its artifacts.
func recordHistory(cfg *config.Config, logger *slog.Logger, job history.Job) {
	if !cfg.History.Enabled {
		return
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		logger.Warn("history unavailable", logging.Error(err))
		return
	}
	defer store.Close()
	if err := store.RecordJob(context.Background(), job); err != nil {
		logger.Warn("history record failed", logging.Error(err))
	}
}

func historyStatus(status clipjob.Status) history.Status {
	switch status {
	case clipjob.StatusCancelled:
		return history.StatusCancelled
	case clipjob.StatusFailed:
		return history.StatusFailed
	default:
		return history.StatusCompleted
	}
}

func historyArtifacts(artifacts []clipjob.Artifact) []history.Artifact {
	rows := make([]history.Artifact, 0, len(artifacts))
	for _, artifact := range artifacts {
		rows = append(rows, history.Artifact{
			Name:         artifact.Name,
			StartSeconds: artifact.Interval.Start,
			EndSeconds:   artifact.Interval.End,
			SizeBytes:    int64(len(artifact.Data)),
			Thumbnail:    artifact.ThumbnailName,
		})
	}
	return rows
}

func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func printOutcome(out io.Writer, outcome clipjob.Outcome, outputDir string) {
	if len(outcome.Artifacts) > 0 {
		rows := make([][]string, 0, len(outcome.Artifacts))
		for _, artifact := range outcome.Artifacts {
			thumb := "-"
			if artifact.ThumbnailName != "" {
				thumb = artifact.ThumbnailName
			}
			rows = append(rows, []string{
				artifact.Name,
				formatTimecode(artifact.Interval.Start),
				formatTimecode(artifact.Interval.End),
				humanize.Bytes(uint64(len(artifact.Data))),
				thumb,
			})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Clip", "Start", "End", "Size", "Thumbnail"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft},
		))
	}

	if outcome.DiscardedSeconds > 0 {
		fmt.Fprintf(out, "Warning: dropped a %.1fs tail under the discard policy\n", outcome.DiscardedSeconds)
	}

	switch outcome.Status {
	case clipjob.StatusCompleted:
		fmt.Fprintf(out, "Completed %d clip(s) in %s\n", len(outcome.Artifacts), outputDir)
	case clipjob.StatusCancelled:
		fmt.Fprintf(out, "Cancelled after %d clip(s); finished artifacts kept in %s\n", len(outcome.Artifacts), outputDir)
	case clipjob.StatusFailed:
		fmt.Fprintf(out, "Failed after %d clip(s); finished artifacts kept in %s\n", len(outcome.Artifacts), outputDir)
	}
}
