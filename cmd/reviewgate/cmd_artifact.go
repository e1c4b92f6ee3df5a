package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"github.com/viant/reviewgate"
	"github.com/viant/reviewgate/model/artifact"
	"github.com/viant/reviewgate/model/detail"
	"github.com/viant/reviewgate/service/coordinator"
	"github.com/viant/reviewgate/service/dao"
)

func newCreateCmd() *cobra.Command {
	var flags struct {
		contentFlags
		kind  string
		owner string
		tiers int
	}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a draft report or proposal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			draft, err := flags.draft(cmd.Context())
			if err != nil {
				return err
			}
			if flags.kind != "" {
				if draft.Kind, err = artifact.ParseKind(flags.kind); err != nil {
					return err
				}
			}
			if flags.owner != "" {
				draft.OwnerID = flags.owner
			}
			if cmd.Flags().Changed("tiers") || draft.ReviewTiers == 0 {
				draft.ReviewTiers = flags.tiers
			}
			return withService(cmd, nil, func(ctx context.Context, srv *reviewgate.Service) error {
				a, err := srv.Coordinator().Create(ctx, draft)
				if err != nil {
					return err
				}
				return render(cmd, a)
			})
		},
	}
	flags.register(cmd)
	f := cmd.Flags()
	f.StringVar(&flags.kind, "kind", "", "Artifact kind: report or proposal")
	f.StringVar(&flags.owner, "owner", "", "Owner id")
	f.IntVar(&flags.tiers, "tiers", 1, "Human review tiers: 1 or 2")
	return cmd
}

func newReviseCmd() *cobra.Command {
	var flags struct {
		contentFlags
		actor string
	}
	cmd := &cobra.Command{
		Use:   "revise <id>",
		Short: "Edit a draft or rejected artifact in place",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			revision, err := flags.revision(cmd.Context())
			if err != nil {
				return err
			}
			return withService(cmd, nil, func(ctx context.Context, srv *reviewgate.Service) error {
				a, err := srv.Coordinator().Revise(ctx, args[0], flags.actor, revision)
				if err != nil {
					return err
				}
				return render(cmd, a)
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&flags.actor, "actor", "cli", "Acting user id")
	return cmd
}

func newSubmitCmd() *cobra.Command {
	return transitionCmd("submit <id>", "Submit an artifact to the analysis gate", (*coordinator.Coordinator).Submit)
}

func newForceSubmitCmd() *cobra.Command {
	return transitionCmd("force-submit <id>", "Send an artifact straight to tier-1 review, bypassing the gate", (*coordinator.Coordinator).ForceSubmit)
}

func transitionCmd(use, short string, fn func(c *coordinator.Coordinator, ctx context.Context, id, actorID string) (*artifact.Artifact, error)) *cobra.Command {
	var actor string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, nil, func(ctx context.Context, srv *reviewgate.Service) error {
				a, err := fn(srv.Coordinator(), ctx, args[0], actor)
				if err != nil {
					return err
				}
				return render(cmd, a)
			})
		},
	}
	cmd.Flags().StringVar(&actor, "actor", "cli", "Acting user id")
	return cmd
}

func newResubmitCmd() *cobra.Command {
	var flags struct {
		contentFlags
		actor string
	}
	cmd := &cobra.Command{
		Use:   "resubmit <id>",
		Short: "Replace the content of a rejected or approved artifact and send it back to the gate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			revision, err := flags.revision(cmd.Context())
			if err != nil {
				return err
			}
			return withService(cmd, nil, func(ctx context.Context, srv *reviewgate.Service) error {
				a, err := srv.Coordinator().Resubmit(ctx, args[0], flags.actor, revision)
				if err != nil {
					return err
				}
				return render(cmd, a)
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&flags.actor, "actor", "cli", "Acting user id")
	return cmd
}

type view struct {
	Artifact *artifact.Artifact `json:"artifact" yaml:"artifact"`
	Details  []*detail.Record   `json:"details,omitempty" yaml:"details,omitempty"`
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show an artifact with its detail records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, nil, func(ctx context.Context, srv *reviewgate.Service) error {
				a, err := srv.Coordinator().Get(ctx, args[0])
				if errors.Is(err, dao.ErrNotFound) {
					return errors.New("artifact " + args[0] + " not found")
				}
				if err != nil {
					return err
				}
				records, err := srv.Coordinator().Details(ctx, a.ID)
				if err != nil {
					return err
				}
				return render(cmd, &view{Artifact: a, Details: records})
			})
		},
	}
}

func newListCmd() *cobra.Command {
	var flags struct {
		states []string
		owner  string
		kind   string
	}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List artifacts, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var parameters []*dao.Parameter
			if len(flags.states) > 0 {
				for _, state := range flags.states {
					if _, err := artifact.ParseState(state); err != nil {
						return err
					}
				}
				parameters = append(parameters, dao.NewParameter(dao.ParamState, flags.states...))
			}
			if flags.owner != "" {
				parameters = append(parameters, dao.NewParameter(dao.ParamOwnerID, flags.owner))
			}
			if flags.kind != "" {
				kind, err := artifact.ParseKind(flags.kind)
				if err != nil {
					return err
				}
				parameters = append(parameters, dao.NewParameter(dao.ParamKind, string(kind)))
			}
			return withService(cmd, nil, func(ctx context.Context, srv *reviewgate.Service) error {
				list, err := srv.Coordinator().List(ctx, parameters...)
				if err != nil {
					return err
				}
				return render(cmd, list)
			})
		},
	}
	f := cmd.Flags()
	f.StringSliceVar(&flags.states, "state", nil, "Filter by state (repeatable)")
	f.StringVar(&flags.owner, "owner", "", "Filter by owner id")
	f.StringVar(&flags.kind, "kind", "", "Filter by kind: report or proposal")
	return cmd
}
