// Package services holds cross-cutting error classification and context
// annotation helpers shared by the planner, command builder, and job driver.
package services
