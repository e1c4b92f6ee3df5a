// Package reviewgate implements an approval workflow for weekly reports and
// project proposals.
//
// A submitted artifact first passes an analysis gate: a provider scores it and
// the gate admits it to human review when the confidence meets the configured
// threshold. One or two human tiers then approve or reject it. Every state
// change is serialised per artifact by the status coordinator.
//
// Hosts typically interact with the root Service façade:
//
//	srv, _ := reviewgate.New(ctx, reviewgate.WithConfig(cfg))
//	_ = srv.Start(ctx)
//	a, _ := srv.Coordinator().Create(ctx, draft)
//	a, _ = srv.Coordinator().Submit(ctx, a.ID, ownerID)
//	pending, _ := srv.Approval().ListPending(ctx, approval.Filter{})
//
// For the command line see cmd/reviewgate.
package reviewgate
