// Package engine implements gensweep's generation lifecycle: a mark-and-sweep
// collector for a build output tree.
//
// ARCHITECTURE:
//
// Each build is one generation. The lifecycle is strictly phased:
//  1. Sequencer.Increment advances the generation counter
//  2. Recorder.Record marks every produced output path with the generation,
//     from as many goroutines as the host likes
//  3. Sweeper.Sweep waits on the ledger barrier, then deletes every file whose
//     mark is older than the current generation
//
// Session ties the three together behind the Hooks interface that host build
// pipelines call.
//
// KEY SPACE:
//
// Metadata keys start with 0x00. Output paths are rejected if they contain a
// NUL byte, so a scan from "\x01" visits exactly the tracked paths.
//
// SAFETY:
//
// Nothing is deleted outside the configured output root during a per-file
// sweep, and an abandoned output root is only removed in bulk when it can be
// proven to lie inside the project root.
package engine
