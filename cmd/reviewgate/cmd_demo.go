package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/viant/reviewgate"
	"github.com/viant/reviewgate/model/artifact"
	"github.com/viant/reviewgate/model/detail"
	"github.com/viant/reviewgate/service/approval"
	"github.com/viant/reviewgate/service/coordinator"
)

const demoBody = "Delivered with tests and a rollout checklist; metrics are on the team dashboard."

func newDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Walk a report and a proposal through the workflow in memory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			config := reviewgate.DefaultConfig()
			config.Analysis.Mode = reviewgate.ModeInline
			config.Notify.Log = false
			config.Log.Level = "warn"
			if cmd.Flags().Changed("threshold") {
				config.Gate.Threshold = rootFlags.threshold
			}
			return withService(cmd, config, func(ctx context.Context, srv *reviewgate.Service) error {
				return runDemo(ctx, srv, cmd.OutOrStdout())
			})
		},
	}
}

func runDemo(ctx context.Context, srv *reviewgate.Service, out io.Writer) error {
	coord := srv.Coordinator()
	step := func(label string, a *artifact.Artifact) {
		line := fmt.Sprintf("%-34s %-16s %s", label, short(a.ID), a.State)
		if a.State == artifact.StateRejected {
			line += " (" + string(a.RejectingTier) + ": " + a.Reason() + ")"
		}
		fmt.Fprintln(out, line)
	}
	fmt.Fprintf(out, "gate threshold: %.2f\n", coord.Gate().Threshold())

	report, err := coord.Create(ctx, &coordinator.Draft{
		Kind: artifact.KindWeeklyReport, Title: "Week 42", OwnerID: "alice", ReviewTiers: 1,
		Details: records(detail.KindTask, demoBody, "Billing export", "Login flake", "On-call handover"),
	})
	if err != nil {
		return err
	}
	step("report created", report)
	if report, err = coord.Submit(ctx, report.ID, "alice"); err != nil {
		return err
	}
	step("report submitted", report)

	proposal, err := coord.Create(ctx, &coordinator.Draft{
		Kind: artifact.KindProjectProposal, Title: "Search rewrite", OwnerID: "bob", ReviewTiers: 2,
		Details: records(detail.KindPhase, "tbd", "Discovery"),
	})
	if err != nil {
		return err
	}
	step("proposal created", proposal)
	if proposal, err = coord.Submit(ctx, proposal.ID, "bob"); err != nil {
		return err
	}
	step("proposal submitted", proposal)
	if proposal, err = coord.Resubmit(ctx, proposal.ID, "bob", &coordinator.Revision{
		Details: records(detail.KindPhase, demoBody, "Discovery", "Prototype", "Rollout"),
	}); err != nil {
		return err
	}
	step("proposal resubmitted", proposal)

	desk := srv.Approval()
	approveAll := func(*approval.Request) (bool, string) { return true, "" }
	for _, tier := range []artifact.Tier{artifact.TierOne, artifact.TierTwo} {
		reviewer := "lead"
		if tier == artifact.TierTwo {
			reviewer = "director"
		}
		decided := approval.DecideAll(ctx, desk, reviewer, approval.Filter{Tier: tier}, approveAll)
		fmt.Fprintf(out, "%s approved %d pending at %s\n", reviewer, decided, tier)
	}

	for _, id := range []string{report.ID, proposal.ID} {
		a, err := coord.Get(ctx, id)
		if err != nil {
			return err
		}
		step("final "+strings.ToLower(string(a.Kind)), a)
	}
	return nil
}

func records(kind detail.Kind, body string, titles ...string) []*detail.Record {
	ret := make([]*detail.Record, 0, len(titles))
	for _, title := range titles {
		ret = append(ret, &detail.Record{Kind: kind, Title: title, Body: body})
	}
	return ret
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
