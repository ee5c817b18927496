package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes the trace to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for i, event := range e.Trace {
		switch event.Type {
		case EventStart:
			fmt.Fprintf(&buf, "  [%d] start generation %d in %s\n", i+1, event.Generation, event.OutputRoot)
		case EventRecord:
			fmt.Fprintf(&buf, "  [%d] record %s\n", i+1, event.Path)
		case EventSweep:
			fmt.Fprintf(&buf, "  [%d] sweep: %s\n", i+1, event.Summary)
		}
	}

	return buf.String()
}

// AssertionContext carries what assertions need beyond the result.
type AssertionContext struct {
	// ProjectRoot is the absolute directory scenario paths are relative to.
	ProjectRoot string
}

func (a *AssertionContext) exists(p string) bool {
	_, err := os.Lstat(filepath.Join(a.ProjectRoot, filepath.FromSlash(p)))
	return err == nil
}

// assertExists checks that every path is present, as a file or directory.
func assertExists(actx *AssertionContext, result *Result, assertion Assertion) error {
	var missing []string
	for _, p := range assertion.Paths {
		if !actx.exists(p) {
			missing = append(missing, p)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertExists,
		Expected: fmt.Sprintf("present: %s", strings.Join(assertion.Paths, ", ")),
		Actual:   fmt.Sprintf("missing: %s", strings.Join(missing, ", ")),
		Trace:    result.Trace,
	}
}

// assertAbsent checks that no path is present.
func assertAbsent(actx *AssertionContext, result *Result, assertion Assertion) error {
	var present []string
	for _, p := range assertion.Paths {
		if actx.exists(p) {
			present = append(present, p)
		}
	}
	if len(present) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertAbsent,
		Expected: fmt.Sprintf("absent: %s", strings.Join(assertion.Paths, ", ")),
		Actual:   fmt.Sprintf("still present: %s", strings.Join(present, ", ")),
		Trace:    result.Trace,
	}
}

// assertGeneration checks the ledger mark for one path.
func assertGeneration(result *Result, assertion Assertion) error {
	for _, m := range result.Marks {
		if m.Path != assertion.Path {
			continue
		}
		if m.Generation == assertion.Generation {
			return nil
		}
		return &AssertionError{
			Type:     AssertGeneration,
			Expected: fmt.Sprintf("%s at generation %d", assertion.Path, assertion.Generation),
			Actual:   fmt.Sprintf("%s at generation %d", m.Path, m.Generation),
			Trace:    result.Trace,
		}
	}
	return &AssertionError{
		Type:     AssertGeneration,
		Expected: fmt.Sprintf("%s at generation %d", assertion.Path, assertion.Generation),
		Actual:   fmt.Sprintf("%s is not tracked", assertion.Path),
		Trace:    result.Trace,
	}
}

// assertUntracked checks that no path has a ledger mark.
func assertUntracked(result *Result, assertion Assertion) error {
	tracked := make(map[string]bool, len(result.Marks))
	for _, m := range result.Marks {
		tracked[m.Path] = true
	}
	var found []string
	for _, p := range assertion.Paths {
		if tracked[p] {
			found = append(found, p)
		}
	}
	if len(found) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertUntracked,
		Expected: fmt.Sprintf("untracked: %s", strings.Join(assertion.Paths, ", ")),
		Actual:   fmt.Sprintf("tracked: %s", strings.Join(found, ", ")),
		Trace:    result.Trace,
	}
}

// assertSummary compares one build's sweep summary.
func assertSummary(result *Result, assertion Assertion) error {
	i := assertion.Build - 1
	if i < 0 || i >= len(result.Sweeps) {
		return &AssertionError{
			Type:     AssertSummary,
			Expected: fmt.Sprintf("build %d", assertion.Build),
			Actual:   fmt.Sprintf("%d builds ran", len(result.Sweeps)),
			Trace:    result.Trace,
		}
	}
	got := result.Sweeps[i].Summary()
	if got == assertion.Equals {
		return nil
	}
	return &AssertionError{
		Type:     AssertSummary,
		Expected: fmt.Sprintf("build %d: %q", assertion.Build, assertion.Equals),
		Actual:   fmt.Sprintf("build %d: %q", assertion.Build, got),
		Trace:    result.Trace,
	}
}

func assertRecordedRoot(result *Result, assertion Assertion) error {
	if result.RecordedRoot == assertion.Equals {
		return nil
	}
	return &AssertionError{
		Type:     AssertRecordedRoot,
		Expected: assertion.Equals,
		Actual:   result.RecordedRoot,
		Trace:    result.Trace,
	}
}

// EvaluateAssertions runs every assertion and returns the failure messages.
// An empty slice means all assertions held.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertExists:
			err = assertExists(actx, result, a)
		case AssertAbsent:
			err = assertAbsent(actx, result, a)
		case AssertGeneration:
			err = assertGeneration(result, a)
		case AssertUntracked:
			err = assertUntracked(result, a)
		case AssertSummary:
			err = assertSummary(result, a)
		case AssertRecordedRoot:
			err = assertRecordedRoot(result, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d: %s", i, err))
		}
	}
	return errs
}
