package cli

import "github.com/worldland/rc6check/internal/residency"

// Process exit codes, compatible with the igt harness
const (
	ExitSuccess = 0
	ExitSkip    = 77
	ExitInvalid = 79
	ExitFailure = 99
)

// ExitCode maps a check outcome to a process exit code
func ExitCode(o residency.Outcome) int {
	switch o {
	case residency.OutcomePass:
		return ExitSuccess
	case residency.OutcomeSkip:
		return ExitSkip
	default:
		return ExitFailure
	}
}
