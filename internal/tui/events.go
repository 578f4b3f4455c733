package tui

// Stage is one step of an evidence run in the progress view.
type Stage int

const (
	StageQuery  Stage = iota // tracker search
	StageDetail              // pull request detail fetch
	StageFormat              // evidence document build
	StageUpload              // collector upload
)

// Status is the state of a stage.
type Status int

const (
	StatusPending Status = iota
	StatusRunning
	StatusComplete
	StatusFailed
	StatusSkipped
)

// Event is anything the progress view consumes.
type Event interface {
	isEvent()
}

// StageEvent replaces the state of one stage. Done and Of count the items
// the stage has handled, Item names the one in hand.
type StageEvent struct {
	Stage  Stage
	Status Status
	Done   int
	Of     int
	Item   string
	Err    error
}

func (StageEvent) isEvent() {}

// NoticeEvent adds a line below the stages.
type NoticeEvent struct {
	Text string
	Warn bool
}

func (NoticeEvent) isEvent() {}

// DoneEvent stops the view.
type DoneEvent struct{}

func (DoneEvent) isEvent() {}
