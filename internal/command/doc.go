// Package command turns one clip interval plus processing settings into the
// exact ordered argv for the ffmpeg engine.
//
// Mode routing is an explicit total function: passthrough (stream copy) is
// used only when requested with no active transform, because stream copy
// cannot apply filters. Filter graphs are built from typed stage descriptors
// and rendered by a single serializer, never by ad hoc string concatenation.
package command
