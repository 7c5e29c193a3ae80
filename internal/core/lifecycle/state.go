// SPDX-License-Identifier: MPL-2.0

package lifecycle

// State is where a background component is in its single run.
type State int32

// A component moves Created → Starting → Running → Stopping → Stopped.
// Failed can be entered from any state; Stopped and Failed are final.
const (
	StateCreated State = iota
	StateStarting
	StateRunning
	StateStopping
	StateStopped
	StateFailed
)

var stateNames = [...]string{
	StateCreated:  "created",
	StateStarting: "starting",
	StateRunning:  "running",
	StateStopping: "stopping",
	StateStopped:  "stopped",
	StateFailed:   "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}
