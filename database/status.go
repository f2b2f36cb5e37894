package database

// Image lifecycle statuses. Transitions only move forward; a failed or done
// image never returns to an earlier stage.
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusDone       = "done"
	StatusFailed     = "failed"
)

var statusRank = map[string]int{
	StatusQueued:     0,
	StatusProcessing: 1,
	StatusDone:       2,
	StatusFailed:     2,
}

// IsValidStatus reports whether s is a known lifecycle status.
func IsValidStatus(s string) bool {
	_, ok := statusRank[s]
	return ok
}

// CanTransition reports whether an image may move from one status to another.
// done and failed are terminal.
func CanTransition(from, to string) bool {
	fromRank, okFrom := statusRank[from]
	toRank, okTo := statusRank[to]
	if !okFrom || !okTo {
		return false
	}
	if from == StatusDone || from == StatusFailed {
		return false
	}
	return toRank > fromRank
}
