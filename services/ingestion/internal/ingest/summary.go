package ingest

import (
	"time"

	"github.com/google/uuid"
)

// Trigger names what started a cycle.
type Trigger string

const (
	TriggerStartup  Trigger = "startup"
	TriggerSchedule Trigger = "schedule"
	TriggerManual   Trigger = "manual"
)

const sampleSize = 3

type ProviderSummary struct {
	Provider   string
	Fetched    int
	Saved      int
	Duplicates int
	Failed     int
	// Sample holds up to three fetched titles, persisted or not.
	Sample   []string
	Disabled bool
	Error    string
}

type RunSummary struct {
	RunID      uuid.UUID
	Trigger    Trigger
	StartedAt  time.Time
	FinishedAt time.Time
	Providers  []ProviderSummary
}

func (s RunSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

func (s RunSummary) Fetched() int {
	n := 0
	for _, p := range s.Providers {
		n += p.Fetched
	}
	return n
}

func (s RunSummary) Saved() int {
	n := 0
	for _, p := range s.Providers {
		n += p.Saved
	}
	return n
}

func (s RunSummary) Duplicates() int {
	n := 0
	for _, p := range s.Providers {
		n += p.Duplicates
	}
	return n
}

func (s RunSummary) Failed() int {
	n := 0
	for _, p := range s.Providers {
		n += p.Failed
	}
	return n
}

// Provider returns the summary for name, if that provider took part.
func (s RunSummary) Provider(name string) (ProviderSummary, bool) {
	for _, p := range s.Providers {
		if p.Provider == name {
			return p, true
		}
	}
	return ProviderSummary{}, false
}
