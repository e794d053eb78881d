package attendance

// State is the frame loop state.
type State string

// Loop states. Running only ever moves to Stopped; Stopped is terminal.
const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StateStopped State = "stopped"
)

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateStopped
}
