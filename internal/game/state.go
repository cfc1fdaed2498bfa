package game

// State is the controller's lifecycle position.
type State int32

const (
	Idle State = iota
	Initializing
	Countdown
	Capturing
	Revealing
	Result
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Initializing:
		return "initializing"
	case Countdown:
		return "countdown"
	case Capturing:
		return "capturing"
	case Revealing:
		return "revealing"
	case Result:
		return "result"
	default:
		return "invalid"
	}
}

// CanStart reports whether Start is legal from s.
func (s State) CanStart() bool {
	return s == Idle
}

// CanRestart reports whether Restart is legal from s. A round can be
// abandoned at any point after initialisation.
func (s State) CanRestart() bool {
	switch s {
	case Countdown, Capturing, Revealing, Result:
		return true
	default:
		return false
	}
}

// ShowsLabels reports whether live classifier labels are displayed in s.
// Labels are hidden while the captured choices are on screen.
func (s State) ShowsLabels() bool {
	switch s {
	case Countdown, Result:
		return true
	default:
		return false
	}
}
