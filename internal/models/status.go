package models

import "fmt"

type Status int

// Forward order of the pipeline. Error sits outside the linear order and is
// reachable from any non-terminal state.
const (
	StatusUnknown Status = iota
	StatusStored
	StatusParsed
	StatusEmbedded
	StatusScored
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusStored:
		return "stored"
	case StatusParsed:
		return "parsed"
	case StatusEmbedded:
		return "embedded"
	case StatusScored:
		return "scored"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

func ParseStatus(s string) (Status, error) {
	switch s {
	case "stored":
		return StatusStored, nil
	case "parsed":
		return StatusParsed, nil
	case "embedded":
		return StatusEmbedded, nil
	case "scored":
		return StatusScored, nil
	case "error":
		return StatusError, nil
	default:
		return StatusUnknown, fmt.Errorf("invalid upload status: %q", s)
	}
}

// Terminal reports whether the status ends the pipeline absent an explicit
// reprocess request.
func (s Status) Terminal() bool {
	return s == StatusScored || s == StatusError
}

// After reports whether s sits strictly past other in the forward order.
// Error never counts as past anything.
func (s Status) After(other Status) bool {
	if s == StatusError || other == StatusError {
		return false
	}
	return s > other
}

func (s Status) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}
