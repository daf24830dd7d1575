// Package clipjob drives one clipping job: it walks the planned intervals in
// order, issues one engine invocation at a time, and collects the produced
// artifacts. The engine is an exclusive resource, so nothing here runs
// concurrently.
package clipjob
