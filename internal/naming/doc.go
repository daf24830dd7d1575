// Package naming renders artifact names from the user template and guarantees
// per-job uniqueness, even when the template omits every distinguishing token.
package naming
