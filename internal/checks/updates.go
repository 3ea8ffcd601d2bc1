package checks

import "fmt"

// ProgressUpdate represents a progress event during a run.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number
	Total   int    // Total steps in the run
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	SuiteStart Phase = iota
	CheckStart
	CheckPassed
	CheckFailed
	ProbeDispatch
	ProbeCollect
	RunDone
)

func (p Phase) String() string {
	switch p {
	case SuiteStart:
		return "suite_start"
	case CheckStart:
		return "check_start"
	case CheckPassed:
		return "check_passed"
	case CheckFailed:
		return "check_failed"
	case ProbeDispatch:
		return "probe_dispatch"
	case ProbeCollect:
		return "probe_collect"
	case RunDone:
		return "run_done"
	default:
		return ""
	}
}

func suiteStartUpdate(suite Suite, step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SuiteStart,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Running suite: %s", suite.Name),
		Data:    suite.Name,
	}
}

func checkStartUpdate(suite Suite, check Check, step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CheckStart,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s: %s...", step, total, suite.Name, check.Name),
	}
}

func checkDoneUpdate(suite Suite, check Check, step, total int, success bool) ProgressUpdate {
	phase := CheckPassed
	mark := "✓"
	if !success {
		phase = CheckFailed
		mark = "✗"
	}
	return ProgressUpdate{
		Phase:   phase,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s: %s", step, total, mark, suite.Name, check.Name),
	}
}

func probeDispatchUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ProbeDispatch,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Dispatching request...", step, total),
	}
}

func probeCollectUpdate(step, total int, success bool) ProgressUpdate {
	mark := "✓"
	if !success {
		mark = "✗"
	}
	return ProgressUpdate{
		Phase:   ProbeCollect,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s request completed", step, total, mark),
	}
}

func runDoneUpdate(report *RunReport, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RunDone,
		Step:    total,
		Total:   total,
		Message: report.Verdict(),
		Data:    report,
	}
}
