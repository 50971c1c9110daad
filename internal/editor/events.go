package editor

// State is the lifecycle stage of an editing session.
type State int

const (
	StateLoading State = iota
	StateReady
	StateDrawing
	StateExporting
	StateSubmitted
	StateFatal
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateDrawing:
		return "drawing"
	case StateExporting:
		return "exporting"
	case StateSubmitted:
		return "submitted"
	case StateFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateSubmitted || s == StateFatal
}

// Tool is the active interaction mode of the drawing region.
type Tool int

const (
	ToolDraw Tool = iota
	ToolPan
)

func (t Tool) String() string {
	if t == ToolPan {
		return "pan"
	}
	return "draw"
}

// Status is a user-visible message.
type Status struct {
	Text  string
	Error bool
}

// EventType identifies different session events.
type EventType int

const (
	EventStateChanged  EventType = iota // data: State
	EventStatus                         // data: Status
	EventRasterChanged                  // data: nil
	EventViewChanged                    // data: view.Transform
	EventToolChanged                    // data: Tool
	EventBrushChanged                   // data: float64 thickness
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

type event struct {
	typ  EventType
	data interface{}
}
