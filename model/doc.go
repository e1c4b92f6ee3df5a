// Package model contains the in-memory representation of review artifacts,
// analysis outcomes and the child detail records attached to an artifact.
//
// The sub-packages do no I/O: `artifact` holds the review
// state machine, `analysis` the outcome produced by an analysis provider and
// `detail` the task/phase records a submission is judged on.
package model
