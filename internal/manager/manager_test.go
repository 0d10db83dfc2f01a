package manager

import (
	"context"
	"testing"
	"time"

	"unitengine/internal/engineconfig"
	"unitengine/internal/job"
	"unitengine/internal/unit"
)

func TestRunCompletesStartJobAndCancelsCleanly(t *testing.T) {
	fake := job.NewFake()
	m := New(engineconfig.Default(), fake, noopBus{})
	u := registerBasicService(m, "run-me")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	h, err := m.Start(context.Background(), "run-me")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := fake.Complete(context.Background(), h); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for u.Active != unit.Active {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for run-me to become active")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	if err := <-done; err == nil {
		t.Error("expected Run to return ctx.Err() on cancellation")
	}
}

func TestListSummariesTruncatesLongDescriptions(t *testing.T) {
	m := New(engineconfig.Default(), job.NewFake(), noopBus{})
	u := registerBasicService(m, "verbose.service")
	u.Description = "a very long description that goes on and on well past the usual tabular width limit for a single status line"

	summaries := m.ListSummaries()
	if len(summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(summaries))
	}
	if len(summaries[0].Description) > 60 {
		t.Errorf("expected description clipped to 60 runes, got %d", len(summaries[0].Description))
	}
	if summaries[0].ID != "verbose.service" {
		t.Errorf("expected id verbose.service, got %s", summaries[0].ID)
	}
}
