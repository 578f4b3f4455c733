// Package service runs the evidence flows: query a tracker, build the
// evidence documents and hand them to the collector.
package service

import "fmt"

// State is a step of a flow run.
type State int

const (
	StateIdle State = iota
	StateQuerying
	StateFetchingDetail
	StateFormatting
	StateUploading
	StateDone
	StateNoResults
	StateAborted
)

var stateNames = map[State]string{
	StateIdle:           "idle",
	StateQuerying:       "querying",
	StateFetchingDetail: "fetching-detail",
	StateFormatting:     "formatting",
	StateUploading:      "uploading",
	StateDone:           "done",
	StateNoResults:      "no-results",
	StateAborted:        "aborted",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no further transition can follow s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateNoResults || s == StateAborted
}

// Transition describes one state change of a flow.
type Transition struct {
	From State
	To   State
	// Item is the key of the item being processed, empty for whole-set steps.
	Item string
	// Index is the 1-based position of Item, Total the number of items.
	Index int
	Total int
	// Err is set on the transition to StateAborted.
	Err error
}

// Observer receives every transition of a flow, in order.
type Observer func(Transition)
