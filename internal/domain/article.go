package domain

import "time"

// Article is a stored tragedy match. The store assigns ID and DetectedAt.
type Article struct {
	ID         int64
	Title      string
	URL        string
	DetectedAt time.Time
}

// Headline is a candidate produced by a source during a single fetch cycle.
type Headline struct {
	Title  string
	URL    string
	Source string
}

// SaveResult reports the outcome of an insert-if-absent. Created is false
// when the URL was already stored; Article is then the zero value.
type SaveResult struct {
	Article Article
	Created bool
}

// FetchStage names the fallback stage that produced a fetch result.
type FetchStage string

const (
	StagePrimary  FetchStage = "primary"
	StageFallback FetchStage = "fallback"
	StageNone     FetchStage = "none"
)

// FetchResult is the output of one aggregated fetch.
type FetchResult struct {
	Headlines []Headline
	Stage     FetchStage
}

// Trigger identifies what started a poll routine.
type Trigger string

const (
	TriggerSchedule Trigger = "schedule"
	TriggerManual   Trigger = "manual"
	TriggerCLI      Trigger = "cli"
)

// PollReport accumulates the counters of a single poll routine invocation.
type PollReport struct {
	RunID          string
	Trigger        Trigger
	Stage          FetchStage
	Fetched        int
	Matched        int
	Created        int
	Duplicates     int
	StoreFailures  int
	NotifyFailures int
	StartedAt      time.Time
	FinishedAt     time.Time
}

// Duration returns how long the routine ran.
func (r PollReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
