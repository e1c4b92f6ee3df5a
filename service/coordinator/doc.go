// Package coordinator is the only writer of artifact state.
//
// Every entry point follows the same sequence: load the artifact under an
// exclusive lock, validate and apply a pure transition, persist, release the
// lock, then notify. Analysis runs off the lock and re-enters through
// ApplyAnalysisOutcome or ApplyAnalysisFailure, which ignore late or stale
// callbacks.
package coordinator
