package services

import (
	"context"
	"testing"
)

func TestJobIDRoundTrip(t *testing.T) {
	ctx := WithJobID(context.Background(), "job-42")
	id, ok := JobIDFromContext(ctx)
	if !ok || id != "job-42" {
		t.Fatalf("JobIDFromContext = %q, %v", id, ok)
	}
}

func TestJobIDAbsent(t *testing.T) {
	if _, ok := JobIDFromContext(context.Background()); ok {
		t.Fatal("no job id expected on fresh context")
	}
	// Empty ids are not stored.
	ctx := WithJobID(context.Background(), "")
	if _, ok := JobIDFromContext(ctx); ok {
		t.Fatal("empty job id must not be stored")
	}
}
