package supervisor

// State is a supervisor lifecycle state.
type State int

const (
	Uninstalled State = iota
	Installed
	Starting
	Running
	Stopping
	Stopped
	Failed
	Crashed
)

var stateNames = [...]string{
	Uninstalled: "uninstalled",
	Installed:   "installed",
	Starting:    "starting",
	Running:     "running",
	Stopping:    "stopping",
	Stopped:     "stopped",
	Failed:      "failed",
	Crashed:     "crashed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// States lists every state, in declaration order.
func States() []State {
	return []State{Uninstalled, Installed, Starting, Running, Stopping, Stopped, Failed, Crashed}
}

// active reports whether a process may exist in this state.
func (s State) active() bool {
	return s == Starting || s == Running || s == Stopping
}
