package service

import "fmt"

// Outcome is the result of a single step of a stage
type Outcome struct {
	OK      bool
	Message string
}

func success() Outcome {
	return Outcome{OK: true}
}

func failure(format string, args ...any) Outcome {
	return Outcome{Message: fmt.Sprintf(format, args...)}
}

// exitOutcome turns a process result into an Outcome, what names the step
// in the error message
func exitOutcome(res Result, what string) Outcome {
	switch {
	case res.Err != nil:
		return failure("Error: %s failed and returncode is %d: %v", what, res.ExitCode, res.Err)
	case res.ExitCode != 0:
		return failure("Error: %s failed and returncode is %d", what, res.ExitCode)
	default:
		return success()
	}
}
