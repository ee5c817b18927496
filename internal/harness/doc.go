// Package harness runs build scenarios against a real ledger and a real file
// tree.
//
// A scenario is a YAML file listing a sequence of builds (the output root and
// the outputs each one produces) and assertions about the files and ledger
// marks left behind. Run executes the builds through engine.Session exactly as
// a host would, records a trace of every start, record and sweep, and
// evaluates the assertions. RunWithGolden additionally compares the trace with
// testdata/golden/<name>.golden.
package harness
