package plan_test

import (
	"errors"
	"math"
	"testing"

	"clipper/internal/plan"
	"clipper/internal/services"
)

const tolerance = 1e-9

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < tolerance
}

func assertSequence(t *testing.T, intervals []plan.Interval, wantEnd float64) {
	t.Helper()
	if len(intervals) == 0 {
		t.Fatal("expected non-empty interval sequence")
	}
	if !approxEqual(intervals[0].Start, 0) {
		t.Fatalf("first interval starts at %.3f, want 0", intervals[0].Start)
	}
	for i, iv := range intervals {
		if iv.Index != i {
			t.Fatalf("interval %d carries index %d", i, iv.Index)
		}
		if iv.Length() <= 0 {
			t.Fatalf("interval %d has non-positive length: %+v", i, iv)
		}
		if i > 0 && !approxEqual(intervals[i-1].End, iv.Start) {
			t.Fatalf("gap between interval %d (end %.3f) and %d (start %.3f)", i-1, intervals[i-1].End, i, iv.Start)
		}
	}
	if last := intervals[len(intervals)-1]; !approxEqual(last.End, wantEnd) {
		t.Fatalf("last interval ends at %.3f, want %.3f", last.End, wantEnd)
	}
}

func TestFixedModeEvenSplit(t *testing.T) {
	res, err := plan.Plan(90, nil, plan.Settings{FixedDuration: 30, Remainder: plan.RemainderMerge})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	assertSequence(t, res.Intervals, 90)
	if len(res.Intervals) != 3 {
		t.Fatalf("expected 3 intervals, got %d", len(res.Intervals))
	}
}

func TestFixedModeThresholdBoundaryIsStrict(t *testing.T) {
	// Remainder is exactly 5; a threshold of 5 must NOT trigger the merge,
	// so the tail stays a separate interval.
	res, err := plan.Plan(95, nil, plan.Settings{FixedDuration: 30, RemainderThreshold: 5, Remainder: plan.RemainderMerge})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	assertSequence(t, res.Intervals, 95)
	want := [][2]float64{{0, 30}, {30, 60}, {60, 90}, {90, 95}}
	if len(res.Intervals) != len(want) {
		t.Fatalf("expected %d intervals, got %d: %+v", len(want), len(res.Intervals), res.Intervals)
	}
	for i, span := range want {
		if !approxEqual(res.Intervals[i].Start, span[0]) || !approxEqual(res.Intervals[i].End, span[1]) {
			t.Fatalf("interval %d is %+v, want %v", i, res.Intervals[i], span)
		}
	}
}

func TestFixedModeMergeExtendsFinalInterval(t *testing.T) {
	// Remainder 5 < threshold 6 merges the tail into the preceding interval,
	// changing the interval count versus the non-merge plan.
	res, err := plan.Plan(65, nil, plan.Settings{FixedDuration: 30, RemainderThreshold: 6, Remainder: plan.RemainderMerge})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	assertSequence(t, res.Intervals, 65)
	if len(res.Intervals) != 2 {
		t.Fatalf("expected 2 intervals after merge, got %d: %+v", len(res.Intervals), res.Intervals)
	}
	last := res.Intervals[1]
	if !approxEqual(last.Start, 30) || !approxEqual(last.End, 65) {
		t.Fatalf("merged final interval is %+v, want [30,65]", last)
	}
	if last.Length() < 30 {
		t.Fatalf("merged final interval shorter than the fixed duration: %.3f", last.Length())
	}
	if res.DiscardedSeconds != 0 {
		t.Fatalf("merge mode must not discard, got %.3f", res.DiscardedSeconds)
	}
}

func TestFixedModeDiscardDropsTail(t *testing.T) {
	res, err := plan.Plan(65, nil, plan.Settings{FixedDuration: 30, RemainderThreshold: 6, Remainder: plan.RemainderDiscard})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(res.Intervals) != 2 {
		t.Fatalf("expected 2 intervals, got %d: %+v", len(res.Intervals), res.Intervals)
	}
	last := res.Intervals[len(res.Intervals)-1]
	if !approxEqual(last.End, 60) {
		t.Fatalf("discard mode final end is %.3f, want 60", last.End)
	}
	if last.End > 65 {
		t.Fatal("discard mode must never exceed the media duration")
	}
	if !approxEqual(res.DiscardedSeconds, 5) {
		t.Fatalf("expected 5 discarded seconds, got %.3f", res.DiscardedSeconds)
	}
}

func TestFixedModeDiscardKeepsTailAboveThreshold(t *testing.T) {
	res, err := plan.Plan(95, nil, plan.Settings{FixedDuration: 30, RemainderThreshold: 5, Remainder: plan.RemainderDiscard})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	assertSequence(t, res.Intervals, 95)
	if res.DiscardedSeconds != 0 {
		t.Fatalf("remainder equal to threshold must be kept, discarded %.3f", res.DiscardedSeconds)
	}
}

func TestFixedDurationLongerThanMediaCollapsesToOneInterval(t *testing.T) {
	res, err := plan.Plan(42, nil, plan.Settings{FixedDuration: 120, Remainder: plan.RemainderMerge})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	assertSequence(t, res.Intervals, 42)
	if len(res.Intervals) != 1 {
		t.Fatalf("expected single interval, got %d", len(res.Intervals))
	}
}

func TestMarkerModeBoundaries(t *testing.T) {
	res, err := plan.Plan(95, []float64{60, 30}, plan.Settings{})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	assertSequence(t, res.Intervals, 95)
	want := [][2]float64{{0, 30}, {30, 60}, {60, 95}}
	if len(res.Intervals) != len(want) {
		t.Fatalf("expected %d intervals, got %d: %+v", len(want), len(res.Intervals), res.Intervals)
	}
	for i, span := range want {
		if !approxEqual(res.Intervals[i].Start, span[0]) || !approxEqual(res.Intervals[i].End, span[1]) {
			t.Fatalf("interval %d is %+v, want %v", i, res.Intervals[i], span)
		}
	}
}

func TestMarkerModeCollapsesNearDuplicates(t *testing.T) {
	res, err := plan.Plan(95, []float64{30, 30.05, 60, 95}, plan.Settings{})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	assertSequence(t, res.Intervals, 95)
	// 30.05 is within epsilon of 30, and the marker at 95 collapses into the
	// implicit final boundary.
	if len(res.Intervals) != 3 {
		t.Fatalf("expected 3 intervals after collapsing, got %d: %+v", len(res.Intervals), res.Intervals)
	}
}

func TestMarkerModeIgnoresMarkerAtZero(t *testing.T) {
	res, err := plan.Plan(10, []float64{0}, plan.Settings{})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	assertSequence(t, res.Intervals, 10)
	if len(res.Intervals) != 1 {
		t.Fatalf("expected single interval, got %+v", res.Intervals)
	}
}

func TestMarkerModeLastIntervalAlwaysEndsAtDuration(t *testing.T) {
	res, err := plan.Plan(120.5, []float64{47.2}, plan.Settings{})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	assertSequence(t, res.Intervals, 120.5)
	if len(res.Intervals) != 2 {
		t.Fatalf("expected 2 intervals, got %+v", res.Intervals)
	}
}

func TestMarkerModeMarkerNearDurationExtendsFinalInterval(t *testing.T) {
	// 94.95 is within epsilon of the 95s duration, so the implicit final
	// boundary collapses into it; the last interval must still end at 95.
	res, err := plan.Plan(95, []float64{30, 94.95}, plan.Settings{})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	assertSequence(t, res.Intervals, 95)
	want := [][2]float64{{0, 30}, {30, 95}}
	if len(res.Intervals) != len(want) {
		t.Fatalf("expected %d intervals, got %d: %+v", len(want), len(res.Intervals), res.Intervals)
	}
	for i, span := range want {
		if !approxEqual(res.Intervals[i].Start, span[0]) || !approxEqual(res.Intervals[i].End, span[1]) {
			t.Fatalf("interval %d is %+v, want %v", i, res.Intervals[i], span)
		}
	}
	if res.DiscardedSeconds != 0 {
		t.Fatalf("marker mode must not discard, got %.3f", res.DiscardedSeconds)
	}
}

func TestNonPositiveDurationFails(t *testing.T) {
	for _, duration := range []float64{0, -3} {
		_, err := plan.Plan(duration, nil, plan.Settings{FixedDuration: 30})
		if err == nil {
			t.Fatalf("expected error for duration %.1f", duration)
		}
		if !errors.Is(err, services.ErrPlanning) {
			t.Fatalf("expected planning error, got %v", err)
		}
	}
}

func TestNonPositiveFixedDurationFails(t *testing.T) {
	_, err := plan.Plan(60, nil, plan.Settings{FixedDuration: 0})
	if !errors.Is(err, services.ErrPlanning) {
		t.Fatalf("expected planning error, got %v", err)
	}
}

func TestParseRemainderPolicy(t *testing.T) {
	cases := []struct {
		in      string
		want    plan.RemainderPolicy
		wantErr bool
	}{
		{in: "", want: plan.RemainderMerge},
		{in: "merge", want: plan.RemainderMerge},
		{in: "Discard", want: plan.RemainderDiscard},
		{in: "truncate", wantErr: true},
	}
	for _, tc := range cases {
		got, err := plan.ParseRemainderPolicy(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseRemainderPolicy(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseRemainderPolicy(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseRemainderPolicy(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
