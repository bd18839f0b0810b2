package hybrid

import "fmt"

// Status is the result of the cloud half of a write.
type Status int

const (
	// StatusSkipped means no cloud call was made because the device is
	// signed out.
	StatusSkipped Status = iota
	StatusOK
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSkipped:
		return "skipped"
	case StatusOK:
		return "ok"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Outcome reports the cloud half of a write. A failed cloud write never
// fails the operation; the local write already succeeded.
type Outcome struct {
	Status Status
	Err    error
}

var skipped = Outcome{Status: StatusSkipped}

func outcomeOf(err error) Outcome {
	if err != nil {
		return Outcome{Status: StatusFailed, Err: err}
	}
	return Outcome{Status: StatusOK}
}

// Synced reports whether the cloud accepted the write.
func (o Outcome) Synced() bool { return o.Status == StatusOK }
