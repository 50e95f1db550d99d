package types

import "fmt"

// OutcomeKind classifies how the orchestrator should proceed after handling
// one unit of work.
type OutcomeKind int

const (
	// OutcomeContinue means the item was handled; move to the next one.
	OutcomeContinue OutcomeKind = iota

	// OutcomeSkipItem means this item failed or was filtered; log and move on.
	OutcomeSkipItem

	// OutcomeAbortThread means the whole page/thread is unusable
	// (structural drift); abandon it but leave the process healthy.
	OutcomeAbortThread

	// OutcomeAbortRun means the run itself is done, e.g. the incremental
	// stop condition fired.
	OutcomeAbortRun
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeContinue:
		return "continue"
	case OutcomeSkipItem:
		return "skip_item"
	case OutcomeAbortThread:
		return "abort_thread"
	case OutcomeAbortRun:
		return "abort_run"
	default:
		return "unknown"
	}
}

// Outcome is the explicit control-flow result passed between the
// orchestrator and its per-item handlers, replacing thrown-exception style
// flow with a value every call site must inspect.
type Outcome struct {
	Kind   OutcomeKind
	Reason string
	Err    error
}

func (o Outcome) String() string {
	if o.Err != nil {
		return fmt.Sprintf("%s (%s): %v", o.Kind, o.Reason, o.Err)
	}
	if o.Reason != "" {
		return fmt.Sprintf("%s (%s)", o.Kind, o.Reason)
	}
	return o.Kind.String()
}

// Proceed reports a handled item.
func Proceed() Outcome { return Outcome{Kind: OutcomeContinue} }

// Skip reports a per-item failure or filter; the run continues.
func Skip(reason string, err error) Outcome {
	return Outcome{Kind: OutcomeSkipItem, Reason: reason, Err: err}
}

// AbortThread reports an unusable page/thread.
func AbortThread(reason string, err error) Outcome {
	return Outcome{Kind: OutcomeAbortThread, Reason: reason, Err: err}
}

// AbortRun reports a deliberate end of the run.
func AbortRun(reason string) Outcome {
	return Outcome{Kind: OutcomeAbortRun, Reason: reason}
}
