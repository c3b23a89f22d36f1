package domain

// State is the terminal state of one pipeline run.
type State string

const (
	StateSkipped            State = "skipped"
	StateDone               State = "done"
	StateFollowUpDispatched State = "followup_dispatched"
)

// Outcome reports what happened to a recording.
type Outcome struct {
	Recording      *Recording
	State          State
	Engine         Engine
	Chunks         int
	TranscriptPath string
	Message        string
	Reply          string
}
