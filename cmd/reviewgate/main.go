// reviewgate is the command line front end of the approval workflow. It keeps
// artifacts in a local SQLite file and runs analysis inline.
//
// Usage:
//
//	reviewgate create --kind report --title "Week 42" --owner alice --task "Billing export: shipped to finance"
//	reviewgate submit <id> --actor alice
//	reviewgate pending --tier tier1
//	reviewgate approve <id> --tier tier1 --reviewer bob
//	reviewgate demo
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "reviewgate",
		Short: "Approval workflow for weekly reports and project proposals",
		Long: "reviewgate moves reports and proposals through an analysis gate\n" +
			"and one or two tiers of human review.",
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		Version: version,
	}
	f := root.PersistentFlags()
	f.StringVar(&rootFlags.config, "config", "", "Config URL (YAML)")
	f.StringVar(&rootFlags.db, "db", defaultDB, "SQLite database path")
	f.Float64Var(&rootFlags.threshold, "threshold", 0, "Gate confidence threshold in [0,1]")
	f.StringVar(&rootFlags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	f.StringVarP(&rootFlags.output, "output", "o", "yaml", "Output format: yaml or json")

	root.AddCommand(newCreateCmd())
	root.AddCommand(newReviseCmd())
	root.AddCommand(newSubmitCmd())
	root.AddCommand(newForceSubmitCmd())
	root.AddCommand(newResubmitCmd())
	root.AddCommand(newApproveCmd())
	root.AddCommand(newRejectCmd())
	root.AddCommand(newShowCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newPendingCmd())
	root.AddCommand(newStatsCmd())
	root.AddCommand(newDemoCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
