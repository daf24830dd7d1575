// Package plan converts a media duration plus either user markers or a fixed
// interval length into the ordered clip interval sequence a job processes.
//
// Key guarantees of a planned sequence:
//   - the first interval starts at 0
//   - intervals are gap-free and non-overlapping
//   - the last interval ends at the media duration, except in discard mode
//     where a sub-threshold tail is intentionally dropped and reported via
//     Result.DiscardedSeconds
package plan
