package plan

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"clipper/internal/services"
)

// Epsilon is the minimum interval length in seconds. Boundaries closer than
// this to the cursor are skipped so near-duplicate markers cannot produce
// zero-length clips.
const Epsilon = 0.1

// RemainderPolicy governs a trailing remainder shorter than the threshold in
// fixed-interval mode.
type RemainderPolicy string

const (
	// RemainderMerge folds the short tail into the final interval.
	RemainderMerge RemainderPolicy = "merge"
	// RemainderDiscard drops the short tail entirely. This is deliberate
	// policy, not data loss by accident: the dropped length is reported in
	// Result.DiscardedSeconds.
	RemainderDiscard RemainderPolicy = "discard"
)

// ParseRemainderPolicy normalizes a user-supplied policy string. Empty input
// selects merge.
func ParseRemainderPolicy(value string) (RemainderPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(RemainderMerge):
		return RemainderMerge, nil
	case string(RemainderDiscard):
		return RemainderDiscard, nil
	default:
		return "", fmt.Errorf("remainder policy: unsupported value %q", value)
	}
}

// Settings configures fixed-interval planning. It is ignored in marker mode.
type Settings struct {
	// FixedDuration is the clip length in seconds used when no markers exist.
	FixedDuration float64
	// RemainderThreshold in seconds; a trailing remainder strictly shorter
	// than this is subject to the Remainder policy.
	RemainderThreshold float64
	Remainder          RemainderPolicy
}

// Interval is one clip span. Invariant: 0 <= Start < End <= duration.
type Interval struct {
	Index int
	Start float64
	End   float64
}

// Length returns the interval length in seconds.
func (iv Interval) Length() float64 {
	return iv.End - iv.Start
}

// Result is one planned job: the ordered interval sequence plus the length of
// any tail dropped under the discard policy.
type Result struct {
	Intervals        []Interval
	DiscardedSeconds float64
}

// Plan produces the clip interval sequence for one job. Marker mode is
// selected whenever markers is non-empty; otherwise fixed-interval mode
// applies. The returned sequence is never empty on success.
func Plan(duration float64, markers []float64, settings Settings) (Result, error) {
	if duration <= 0 {
		return Result{}, services.Wrap(
			services.ErrPlanning,
			"plan",
			"validate duration",
			fmt.Sprintf("media duration must be positive, got %.3f", duration),
			nil,
		)
	}

	if len(markers) > 0 {
		return Result{Intervals: markerIntervals(duration, markers)}, nil
	}

	if settings.FixedDuration <= 0 {
		return Result{}, services.Wrap(
			services.ErrPlanning,
			"plan",
			"validate settings",
			fmt.Sprintf("fixed interval length must be positive, got %.3f", settings.FixedDuration),
			nil,
		)
	}
	if settings.RemainderThreshold < 0 {
		return Result{}, services.Wrap(
			services.ErrPlanning,
			"plan",
			"validate settings",
			fmt.Sprintf("remainder threshold must not be negative, got %.3f", settings.RemainderThreshold),
			nil,
		)
	}
	policy := settings.Remainder
	if policy == "" {
		policy = RemainderMerge
	}

	intervals, discarded := fixedIntervals(duration, settings.FixedDuration, settings.RemainderThreshold, policy)
	return Result{Intervals: intervals, DiscardedSeconds: discarded}, nil
}

// markerIntervals walks the sorted marker list with the media duration
// appended as the implicit final boundary. Markers define interval ends; the
// cursor supplies each start. Boundaries within Epsilon of the cursor are
// skipped, which collapses duplicates and markers at (or past) the ends.
func markerIntervals(duration float64, markers []float64) []Interval {
	boundaries := make([]float64, 0, len(markers)+1)
	boundaries = append(boundaries, markers...)
	sort.Float64s(boundaries)
	boundaries = append(boundaries, duration)

	intervals := make([]Interval, 0, len(boundaries))
	cursor := 0.0
	for _, boundary := range boundaries {
		if boundary > duration {
			boundary = duration
		}
		if boundary <= cursor+Epsilon {
			continue
		}
		intervals = append(intervals, Interval{Index: len(intervals), Start: cursor, End: boundary})
		cursor = boundary
	}

	// All boundaries collapsed (markers clustered near zero on a very short
	// source); fall back to a single whole-media interval.
	if len(intervals) == 0 {
		return []Interval{{Index: 0, Start: 0, End: duration}}
	}

	// A marker within Epsilon of duration swallows the implicit final
	// boundary. The last interval still ends at duration, never at a marker.
	if last := &intervals[len(intervals)-1]; last.End < duration {
		last.End = duration
	}
	return intervals
}

func fixedIntervals(duration, length, threshold float64, policy RemainderPolicy) ([]Interval, float64) {
	intervals := make([]Interval, 0, int(math.Ceil(duration/length)))
	cursor := 0.0
	for cursor < duration {
		end := math.Min(cursor+length, duration)
		remainder := duration - end
		if remainder > 0 && remainder < threshold {
			if policy == RemainderMerge {
				intervals = append(intervals, Interval{Index: len(intervals), Start: cursor, End: duration})
				return intervals, 0
			}
			intervals = append(intervals, Interval{Index: len(intervals), Start: cursor, End: end})
			return intervals, remainder
		}
		intervals = append(intervals, Interval{Index: len(intervals), Start: cursor, End: end})
		cursor = end
	}
	return intervals, 0
}
