package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a synthesis run.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	State   State  // Pipeline state just entered
	Step    int    // Current step number within the state
	Total   int    // Total steps in this state
	Message string // Human-readable message for display
	Data    any    // Optional state-specific data
}

// State is a stage of the synthesis state machine. States only move forward.
type State int

const (
	RequestReceived State = iota
	SuggestionsFetched
	TracksResolved
	ProfileComputed
	CandidatesFetched
	Merged
	AttributeFiltered
	Done
)

func (s State) String() string {
	switch s {
	case RequestReceived:
		return "request_received"
	case SuggestionsFetched:
		return "suggestions_fetched"
	case TracksResolved:
		return "tracks_resolved"
	case ProfileComputed:
		return "profile_computed"
	case CandidatesFetched:
		return "candidates_fetched"
	case Merged:
		return "merged"
	case AttributeFiltered:
		return "attribute_filtered"
	case Done:
		return "done"
	default:
		return ""
	}
}

func requestUpdate() ProgressUpdate {
	return ProgressUpdate{State: RequestReceived, Step: 1, Total: 1, Message: "Asking for suggestions..."}
}

func suggestionsUpdate(pairs, skipped int) ProgressUpdate {
	return ProgressUpdate{
		State:   SuggestionsFetched,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Parsed %d suggestions (%d lines skipped)", pairs, skipped),
	}
}

func resolveUpdate(step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		State:   TracksResolved,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Searching catalog for %q...", title),
	}
}

func profileUpdate(dimensions int) ProgressUpdate {
	return ProgressUpdate{
		State:   ProfileComputed,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Computed target profile over %d dimensions", dimensions),
	}
}

func candidatesUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		State:   CandidatesFetched,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetched %d recommendations", count),
	}
}

func mergedUpdate(count int) ProgressUpdate {
	return ProgressUpdate{State: Merged, Step: 1, Total: 1, Message: fmt.Sprintf("Merged into %d tracks", count)}
}

func filteredUpdate(kept, total int, value string) ProgressUpdate {
	return ProgressUpdate{
		State:   AttributeFiltered,
		Step:    kept,
		Total:   total,
		Message: fmt.Sprintf("Kept %d of %d tracks with attribute %q", kept, total, value),
	}
}

func doneUpdate(count int) ProgressUpdate {
	return ProgressUpdate{State: Done, Step: 1, Total: 1, Message: fmt.Sprintf("Done: %d tracks", count)}
}
