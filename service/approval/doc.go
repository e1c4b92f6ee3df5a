// Package approval is the human review desk: it lists artifacts waiting on a
// reviewer tier and records decisions through the coordinator. AutoDecider
// applies a decision function on a schedule, which is handy for demos and
// for operational policies such as auto-approving low-risk reports.
package approval
