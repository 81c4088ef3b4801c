package audio

// Action is what a state change does to an agent's loop cue
type Action int

const (
	ActionNone Action = iota
	ActionStart
	ActionStop
)

// String returns the string representation of the action
func (a Action) String() string {
	switch a {
	case ActionStart:
		return "start"
	case ActionStop:
		return "stop"
	default:
		return ""
	}
}

// ParseAction parses "start", "stop" or "" (none)
func ParseAction(s string) (Action, bool) {
	switch s {
	case "":
		return ActionNone, true
	case "start":
		return ActionStart, true
	case "stop":
		return ActionStop, true
	default:
		return ActionNone, false
	}
}

// Apply performs action for key
func (c *Cues) Apply(key, cue string, action Action) error {
	switch action {
	case ActionStart:
		if cue == "" {
			return nil
		}
		return c.Start(key, cue)
	case ActionStop:
		c.Stop(key)
	}
	return nil
}
