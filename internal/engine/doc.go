// Package engine defines the caller-side contract with the external video
// processing tool: a named file store plus argv execution. The production
// implementation wraps the ffmpeg binary with a per-job working directory
// backing the file store. The engine is an exclusive resource; callers must
// not issue concurrent invocations.
package engine
