package clipjob

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"

	"clipper/internal/command"
	"clipper/internal/plan"
	"clipper/internal/services"
)

// stubEngine records invocations and fabricates artifact payloads without
// touching ffmpeg.
type stubEngine struct {
	execs    [][]string
	files    map[string][]byte
	execHook func(args []string) error
	readHook func(name string) error
}

func newStubEngine() *stubEngine {
	return &stubEngine{files: map[string][]byte{}}
}

func (s *stubEngine) WriteFile(name string, data []byte) error {
	s.files[name] = data
	return nil
}

func (s *stubEngine) Exec(ctx context.Context, args []string) error {
	s.execs = append(s.execs, slices.Clone(args))
	if s.execHook != nil {
		if err := s.execHook(args); err != nil {
			return err
		}
	}
	// Last token is the output name by builder convention.
	output := args[len(args)-1]
	s.files[output] = []byte("payload:" + output)
	return nil
}

func (s *stubEngine) ReadFile(name string) ([]byte, error) {
	if s.readHook != nil {
		if err := s.readHook(name); err != nil {
			return nil, err
		}
	}
	data, ok := s.files[name]
	if !ok {
		return nil, fmt.Errorf("stub: no entry %s", name)
	}
	return data, nil
}

func isThumbnailArgs(args []string) bool {
	return slices.Contains(args, "-frames:v")
}

func twoIntervals() plan.Result {
	return plan.Result{Intervals: []plan.Interval{
		{Index: 0, Start: 0, End: 30},
		{Index: 1, Start: 30, End: 60},
	}}
}

func TestRunProducesArtifactsInOrder(t *testing.T) {
	eng := newStubEngine()
	driver := New(eng, nil)

	outcome, err := driver.Run(context.Background(), Request{
		SourceName: "movie.mp4",
		Mode:       command.ModePassthrough,
		Thumbnails: true,
	}, twoIntervals())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome.Status != StatusCompleted {
		t.Fatalf("status = %q", outcome.Status)
	}
	if len(outcome.Artifacts) != 2 {
		t.Fatalf("expected 2 artifacts, got %d", len(outcome.Artifacts))
	}
	if outcome.Artifacts[0].Name != "movie_part001.mp4" || outcome.Artifacts[1].Name != "movie_part002.mp4" {
		t.Fatalf("unexpected names: %s, %s", outcome.Artifacts[0].Name, outcome.Artifacts[1].Name)
	}
	for i, artifact := range outcome.Artifacts {
		if len(artifact.Data) == 0 {
			t.Fatalf("artifact %d has no payload", i)
		}
		if artifact.ThumbnailName == "" || len(artifact.ThumbnailData) == 0 {
			t.Fatalf("artifact %d missing thumbnail", i)
		}
	}
	// Strictly sequential: clip then thumbnail, interval by interval.
	if len(eng.execs) != 4 {
		t.Fatalf("expected 4 engine invocations, got %d", len(eng.execs))
	}
	wantThumb := []bool{false, true, false, true}
	for i, args := range eng.execs {
		if isThumbnailArgs(args) != wantThumb[i] {
			t.Fatalf("invocation %d out of order: %v", i, args)
		}
	}
}

func TestRunWithoutThumbnails(t *testing.T) {
	eng := newStubEngine()
	driver := New(eng, nil)

	outcome, err := driver.Run(context.Background(), Request{SourceName: "movie.mp4"}, twoIntervals())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(eng.execs) != 2 {
		t.Fatalf("expected 2 invocations, got %d", len(eng.execs))
	}
	if outcome.Artifacts[0].ThumbnailName != "" {
		t.Fatal("no thumbnail expected")
	}
}

func TestRunCancelledBeforeFirstIntervalProcessesNothing(t *testing.T) {
	eng := newStubEngine()
	driver := New(eng, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome, err := driver.Run(ctx, Request{SourceName: "movie.mp4"}, twoIntervals())
	if err != nil {
		t.Fatalf("cancellation must not be an error: %v", err)
	}
	if outcome.Status != StatusCancelled {
		t.Fatalf("status = %q, want cancelled", outcome.Status)
	}
	if len(outcome.Artifacts) != 0 {
		t.Fatalf("expected no artifacts, got %d", len(outcome.Artifacts))
	}
	if len(eng.execs) != 0 {
		t.Fatalf("expected no engine invocations, got %d", len(eng.execs))
	}
}

func TestRunCancelledMidJobKeepsProducedArtifacts(t *testing.T) {
	eng := newStubEngine()
	ctx, cancel := context.WithCancel(context.Background())
	eng.execHook = func(args []string) error {
		cancel()
		return nil
	}
	driver := New(eng, nil)

	outcome, err := driver.Run(ctx, Request{SourceName: "movie.mp4"}, twoIntervals())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome.Status != StatusCancelled {
		t.Fatalf("status = %q, want cancelled", outcome.Status)
	}
	if len(outcome.Artifacts) != 1 {
		t.Fatalf("expected first artifact retained, got %d", len(outcome.Artifacts))
	}
}

func TestRunEngineFailureAbortsAndRetainsArtifacts(t *testing.T) {
	eng := newStubEngine()
	calls := 0
	eng.execHook = func(args []string) error {
		calls++
		if calls == 2 {
			return errors.New("exit status 1: Invalid data found")
		}
		return nil
	}
	driver := New(eng, nil)

	outcome, err := driver.Run(context.Background(), Request{SourceName: "movie.mp4"}, twoIntervals())
	if err == nil {
		t.Fatal("expected engine failure")
	}
	if !errors.Is(err, services.ErrEngine) {
		t.Fatalf("error not classified as engine failure: %v", err)
	}
	if !strings.Contains(err.Error(), "interval 2") {
		t.Fatalf("error must name the interval: %v", err)
	}
	if outcome.Status != StatusFailed {
		t.Fatalf("status = %q, want failed", outcome.Status)
	}
	if len(outcome.Artifacts) != 1 {
		t.Fatalf("expected first artifact retained, got %d", len(outcome.Artifacts))
	}
}

func TestRunExecFailureUnderCancellationIsCancelled(t *testing.T) {
	eng := newStubEngine()
	ctx, cancel := context.WithCancel(context.Background())
	eng.execHook = func(args []string) error {
		cancel()
		return context.Canceled
	}
	driver := New(eng, nil)

	outcome, err := driver.Run(ctx, Request{SourceName: "movie.mp4"}, twoIntervals())
	if err != nil {
		t.Fatalf("interrupted exec must map to cancelled, not error: %v", err)
	}
	if outcome.Status != StatusCancelled {
		t.Fatalf("status = %q, want cancelled", outcome.Status)
	}
}

func TestRunThumbnailFailureIsNonFatal(t *testing.T) {
	eng := newStubEngine()
	eng.execHook = func(args []string) error {
		if isThumbnailArgs(args) {
			return errors.New("exit status 1")
		}
		return nil
	}
	driver := New(eng, nil)

	outcome, err := driver.Run(context.Background(), Request{
		SourceName: "movie.mp4",
		Thumbnails: true,
	}, twoIntervals())
	if err != nil {
		t.Fatalf("thumbnail failure must not fail the job: %v", err)
	}
	if outcome.Status != StatusCompleted {
		t.Fatalf("status = %q", outcome.Status)
	}
	for i, artifact := range outcome.Artifacts {
		if artifact.ThumbnailName != "" || artifact.ThumbnailData != nil {
			t.Fatalf("artifact %d should have no thumbnail", i)
		}
		if len(artifact.Data) == 0 {
			t.Fatalf("artifact %d clip payload missing", i)
		}
	}
}

func TestRunThumbnailReadFailureIsNonFatal(t *testing.T) {
	eng := newStubEngine()
	eng.readHook = func(name string) error {
		if strings.HasSuffix(name, "_thumb.jpg") {
			return errors.New("stub: unreadable")
		}
		return nil
	}
	driver := New(eng, nil)

	outcome, err := driver.Run(context.Background(), Request{
		SourceName: "movie.mp4",
		Thumbnails: true,
	}, twoIntervals())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome.Artifacts[0].ThumbnailName != "" {
		t.Fatal("expected thumbnail dropped on read failure")
	}
}

func TestRunReadFailureOnClipIsFatal(t *testing.T) {
	eng := newStubEngine()
	eng.readHook = func(name string) error {
		return errors.New("stub: unreadable")
	}
	driver := New(eng, nil)

	outcome, err := driver.Run(context.Background(), Request{SourceName: "movie.mp4"}, twoIntervals())
	if err == nil {
		t.Fatal("expected failure reading clip")
	}
	if !errors.Is(err, services.ErrEngine) {
		t.Fatalf("error not classified as engine failure: %v", err)
	}
	if outcome.Status != StatusFailed {
		t.Fatalf("status = %q", outcome.Status)
	}
}

func TestRunReportsProgressPerInterval(t *testing.T) {
	eng := newStubEngine()
	var seen []string
	driver := New(eng, nil, WithProgress(func(index, total int, clipName string) {
		seen = append(seen, fmt.Sprintf("%d/%d:%s", index+1, total, clipName))
	}))

	if _, err := driver.Run(context.Background(), Request{SourceName: "movie.mp4"}, twoIntervals()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []string{"1/2:movie_part001.mp4", "2/2:movie_part002.mp4"}
	if !slices.Equal(seen, want) {
		t.Fatalf("progress = %v, want %v", seen, want)
	}
}

func TestRunCarriesDiscardedSeconds(t *testing.T) {
	eng := newStubEngine()
	driver := New(eng, nil)

	planned := plan.Result{
		Intervals:        []plan.Interval{{Index: 0, Start: 0, End: 30}},
		DiscardedSeconds: 5,
	}
	outcome, err := driver.Run(context.Background(), Request{SourceName: "movie.mp4"}, planned)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome.DiscardedSeconds != 5 {
		t.Fatalf("DiscardedSeconds = %v, want 5", outcome.DiscardedSeconds)
	}
}
