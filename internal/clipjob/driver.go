package clipjob

import (
	"context"
	"fmt"
	"log/slog"

	"clipper/internal/command"
	"clipper/internal/engine"
	"clipper/internal/logging"
	"clipper/internal/naming"
	"clipper/internal/plan"
	"clipper/internal/services"
)

// Status reports how a job run ended.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// Request describes one clipping job.
type Request struct {
	// SourceName is the input's name inside the engine file store.
	SourceName string
	// Template is the clip naming template; empty selects the default.
	Template string
	Mode     command.Mode
	// Transforms may force re-encoding regardless of the requested mode.
	Transforms command.Transforms
	// Thumbnails extracts a still frame per clip when set.
	Thumbnails bool
}

// Artifact is one produced clip with its payload and optional thumbnail.
type Artifact struct {
	Name          string
	Interval      plan.Interval
	Data          []byte
	ThumbnailName string
	ThumbnailData []byte
}

// Outcome is the result of a job run. Artifacts produced before a failure or
// cancellation are always retained.
type Outcome struct {
	Status           Status
	Artifacts        []Artifact
	DiscardedSeconds float64
}

// Progress is invoked before each interval is processed.
type Progress func(index, total int, clipName string)

// Option configures a Driver.
type Option func(*Driver)

// WithProgress installs a per-interval progress callback.
func WithProgress(fn Progress) Option {
	return func(d *Driver) {
		d.progress = fn
	}
}

// Driver executes clipping jobs against an engine.
type Driver struct {
	engine   engine.Engine
	logger   *slog.Logger
	progress Progress
}

// New builds a driver. A nil logger disables logging.
func New(eng engine.Engine, logger *slog.Logger, opts ...Option) *Driver {
	if logger == nil {
		logger = logging.NewNop()
	}
	driver := &Driver{
		engine: eng,
		logger: logging.WithComponent(logger, "clipjob"),
	}
	for _, opt := range opts {
		opt(driver)
	}
	return driver
}

// Run processes every planned interval strictly in order. Cancellation is
// observed at the top of each iteration, the first included, so a request
// cancelled before work starts produces nothing. A cancelled run is a
// distinct outcome, not an error; a main-clip engine failure is fatal and
// reported with the interval it struck.
func (d *Driver) Run(ctx context.Context, req Request, planned plan.Result) (Outcome, error) {
	outcome := Outcome{DiscardedSeconds: planned.DiscardedSeconds}
	if d.engine == nil {
		outcome.Status = StatusFailed
		return outcome, services.Wrap(services.ErrEngine, "clip", "setup", "no engine configured", nil)
	}

	logger := d.logger
	if jobID, ok := services.JobIDFromContext(ctx); ok {
		logger = logger.With(logging.String("job_id", jobID))
	}

	namer := naming.NewNamer(req.Template, req.SourceName, "")
	mode := command.Route(req.Mode, req.Transforms)
	total := len(planned.Intervals)
	logger.Info("job started",
		logging.String("source", req.SourceName),
		logging.String("mode", string(mode)),
		logging.Int("intervals", total))

	for _, iv := range planned.Intervals {
		if ctx.Err() != nil {
			logger.Info("job cancelled",
				logging.Int("produced", len(outcome.Artifacts)),
				logging.Int("remaining", total-len(outcome.Artifacts)))
			outcome.Status = StatusCancelled
			return outcome, nil
		}

		clipName := namer.ClipName(iv)
		if d.progress != nil {
			d.progress(iv.Index, total, clipName)
		}

		args := command.BuildClipArgs(iv, req.Mode, req.Transforms, req.SourceName, clipName)
		if err := d.engine.Exec(ctx, args); err != nil {
			if ctx.Err() != nil {
				outcome.Status = StatusCancelled
				return outcome, nil
			}
			outcome.Status = StatusFailed
			return outcome, services.Wrap(services.ErrEngine, "clip", intervalLabel(iv), "engine invocation failed", err)
		}

		data, err := d.engine.ReadFile(clipName)
		if err != nil {
			outcome.Status = StatusFailed
			return outcome, services.Wrap(services.ErrEngine, "clip", intervalLabel(iv), "read produced clip", err)
		}

		artifact := Artifact{Name: clipName, Interval: iv, Data: data}
		if req.Thumbnails {
			artifact.ThumbnailName, artifact.ThumbnailData = d.extractThumbnail(ctx, logger, req.SourceName, clipName, iv)
		}
		outcome.Artifacts = append(outcome.Artifacts, artifact)
		logger.Info("clip produced",
			logging.String("clip", clipName),
			logging.Int("bytes", len(data)),
			logging.String("start", command.FormatSeconds(iv.Start)),
			logging.String("end", command.FormatSeconds(iv.End)))
	}

	outcome.Status = StatusCompleted
	logger.Info("job completed", logging.Int("clips", len(outcome.Artifacts)))
	return outcome, nil
}

// extractThumbnail pulls one still frame for the interval. Failure is never
// fatal: the clip ships without a thumbnail.
func (d *Driver) extractThumbnail(ctx context.Context, logger *slog.Logger, sourceName, clipName string, iv plan.Interval) (string, []byte) {
	thumbName := naming.ThumbnailFor(clipName)
	args := command.BuildThumbnailArgs(iv, sourceName, thumbName)
	if err := d.engine.Exec(ctx, args); err != nil {
		logger.Warn("thumbnail skipped",
			logging.String("clip", clipName),
			logging.Error(services.Wrap(services.ErrThumbnail, "thumbnail", intervalLabel(iv), "still-frame extraction failed", err)))
		return "", nil
	}
	data, err := d.engine.ReadFile(thumbName)
	if err != nil {
		logger.Warn("thumbnail skipped",
			logging.String("clip", clipName),
			logging.Error(services.Wrap(services.ErrThumbnail, "thumbnail", intervalLabel(iv), "read produced thumbnail", err)))
		return "", nil
	}
	return thumbName, data
}

func intervalLabel(iv plan.Interval) string {
	return fmt.Sprintf("interval %d", iv.Index+1)
}
