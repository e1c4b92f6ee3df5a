package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"github.com/viant/reviewgate"
	"github.com/viant/reviewgate/model/artifact"
	"github.com/viant/reviewgate/service/approval"
)

type decisionFlags struct {
	reviewer string
	tier     string
	reason   string
}

func newApproveCmd() *cobra.Command {
	return decisionCmd("approve <id>", "Approve an artifact at a human tier", true)
}

func newRejectCmd() *cobra.Command {
	return decisionCmd("reject <id>", "Reject an artifact at a human tier", false)
}

func decisionCmd(use, short string, approved bool) *cobra.Command {
	flags := &decisionFlags{}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tier, err := parseTier(flags.tier)
			if err != nil {
				return err
			}
			if !approved && flags.reason == "" {
				return errors.New("--reason is required")
			}
			return withService(cmd, nil, func(ctx context.Context, srv *reviewgate.Service) error {
				decision, err := srv.Approval().Decide(ctx, args[0], flags.reviewer, tier, approved, flags.reason)
				if err != nil {
					return err
				}
				return render(cmd, decision)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&flags.reviewer, "reviewer", "", "Reviewer id (required)")
	f.StringVar(&flags.tier, "tier", string(artifact.TierOne), "Review tier: tier1 or tier2")
	if !approved {
		f.StringVar(&flags.reason, "reason", "", "Rejection reason (required)")
	}
	_ = cmd.MarkFlagRequired("reviewer")
	return cmd
}

func newPendingCmd() *cobra.Command {
	var flags struct {
		tier  string
		owner string
		kind  string
	}
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List artifacts waiting on a human reviewer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := approval.Filter{OwnerID: flags.owner}
			if flags.tier != "" {
				tier, err := parseTier(flags.tier)
				if err != nil {
					return err
				}
				filter.Tier = tier
			}
			if flags.kind != "" {
				kind, err := artifact.ParseKind(flags.kind)
				if err != nil {
					return err
				}
				filter.Kind = kind
			}
			return withService(cmd, nil, func(ctx context.Context, srv *reviewgate.Service) error {
				pending, err := srv.Approval().ListPending(ctx, filter)
				if err != nil {
					return err
				}
				return render(cmd, pending)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&flags.tier, "tier", "", "Filter by tier: tier1 or tier2")
	f.StringVar(&flags.owner, "owner", "", "Filter by owner id")
	f.StringVar(&flags.kind, "kind", "", "Filter by kind: report or proposal")
	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count artifacts per state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, nil, func(ctx context.Context, srv *reviewgate.Service) error {
				return render(cmd, srv.Progress().Snapshot())
			})
		},
	}
}
