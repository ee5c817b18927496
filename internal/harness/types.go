package harness

import "github.com/roach88/gensweep/internal/engine"

// Trace event types.
const (
	EventStart  = "start"
	EventRecord = "record"
	EventSweep  = "sweep"
)

// TraceEvent is one step of a scenario run.
type TraceEvent struct {
	Type           string `json:"type"`
	Generation     int64  `json:"generation"`
	OutputRoot     string `json:"output_root,omitempty"`
	Path           string `json:"path,omitempty"`
	Summary        string `json:"summary,omitempty"`
	FilesRemoved   int    `json:"files_removed,omitempty"`
	DirsRemoved    int    `json:"dirs_removed,omitempty"`
	RecordsRemoved int    `json:"records_removed,omitempty"`
	RootChanged    bool   `json:"root_changed,omitempty"`
	OldRootRemoved bool   `json:"old_root_removed,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Trace lists every start, record and sweep in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains assertion failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Files lists every file left under the project root, slash-separated
	// and sorted.
	Files []string `json:"files"`

	// Marks is the final ledger content.
	Marks []engine.Mark `json:"marks"`

	// RecordedRoot is the output root the ledger holds after the last build.
	RecordedRoot string `json:"recorded_root"`

	// Sweeps holds one entry per build; incomplete builds leave a zero value.
	Sweeps []engine.Result `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func (r *Result) addStart(g int64, outputRoot string) {
	r.Trace = append(r.Trace, TraceEvent{Type: EventStart, Generation: g, OutputRoot: outputRoot})
}

func (r *Result) addRecord(g int64, path string) {
	r.Trace = append(r.Trace, TraceEvent{Type: EventRecord, Generation: g, Path: path})
}

func (r *Result) addSweep(res engine.Result) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:           EventSweep,
		Generation:     res.Generation,
		Summary:        res.Summary(),
		FilesRemoved:   res.FilesRemoved,
		DirsRemoved:    res.DirsRemoved,
		RecordsRemoved: res.RecordsRemoved,
		RootChanged:    res.RootChanged,
		OldRootRemoved: res.OldRootRemoved,
	})
}
