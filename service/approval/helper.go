package approval

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DecisionFunc decides what to do with a pending request.
// Return (true, "") to approve or (false, "...") to reject with reason.
type DecisionFunc func(r *Request) (approved bool, reason string)

// AutoDecider starts a goroutine that polls ListPending and applies fn to
// every matching request as reviewerID. It returns stop(), which is safe to
// call more than once; cancelling ctx also ends the loop.
func AutoDecider(ctx context.Context, svc *Service, reviewerID string, filter Filter, fn DecisionFunc, interval time.Duration) (stop func()) {
	if interval <= 0 {
		interval = 20 * time.Millisecond
	}
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				DecideAll(ctx, svc, reviewerID, filter, fn)
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

// DecideAll applies fn once to every pending request and returns the number
// of decisions recorded. Requests that moved on concurrently are skipped.
func DecideAll(ctx context.Context, svc *Service, reviewerID string, filter Filter, fn DecisionFunc) int {
	requests, err := svc.ListPending(ctx, filter)
	if err != nil {
		slog.Warn("auto decider: list pending failed", "error", err)
		return 0
	}
	decided := 0
	for _, r := range requests {
		approved, reason := fn(r)
		if _, err := svc.Decide(ctx, r.ArtifactID, reviewerID, r.Tier, approved, reason); err != nil {
			slog.Debug("auto decider: decision skipped", "artifact_id", r.ArtifactID, "error", err)
			continue
		}
		decided++
	}
	return decided
}

// AutoApprove automatically approves all pending requests
func AutoApprove(ctx context.Context, svc *Service, reviewerID string, filter Filter, interval time.Duration) func() {
	return AutoDecider(ctx, svc, reviewerID, filter, func(*Request) (bool, string) { return true, "" }, interval)
}

// AutoReject automatically rejects all pending requests with the given reason
func AutoReject(ctx context.Context, svc *Service, reviewerID string, filter Filter, reason string, interval time.Duration) func() {
	return AutoDecider(ctx, svc, reviewerID, filter, func(*Request) (bool, string) { return false, reason }, interval)
}
