package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/viant/afs"
	"github.com/viant/reviewgate"
	"github.com/viant/reviewgate/internal/logging"
	"github.com/viant/reviewgate/model/artifact"
	"github.com/viant/reviewgate/model/detail"
	"github.com/viant/reviewgate/service/coordinator"
	"gopkg.in/yaml.v3"
)

const defaultDB = "reviewgate.db"

var rootFlags struct {
	config    string
	db        string
	threshold float64
	logLevel  string
	output    string
}

// loadConfig applies command line overrides on top of the config document.
// The CLI exits after each command, so analysis always runs inline and the
// store is persistent.
func loadConfig(cmd *cobra.Command) (*reviewgate.Config, error) {
	config, err := reviewgate.LoadConfig(cmd.Context(), rootFlags.config)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if config.Store.Driver == reviewgate.StoreMemory || flags.Changed("db") {
		config.Store.Driver = reviewgate.StoreSQLite
		config.Store.DSN = rootFlags.db
	}
	config.Analysis.Mode = reviewgate.ModeInline
	if flags.Changed("threshold") {
		config.Gate.Threshold = rootFlags.threshold
	}
	if flags.Changed("log-level") {
		config.Log.Level = rootFlags.logLevel
	}
	return config, config.Validate()
}

// withService opens and starts the service, runs fn and shuts it down.
func withService(cmd *cobra.Command, config *reviewgate.Config, fn func(ctx context.Context, srv *reviewgate.Service) error) error {
	if config == nil {
		var err error
		if config, err = loadConfig(cmd); err != nil {
			return err
		}
	}
	level, err := logging.ParseLevel(config.Log.Level)
	if err != nil {
		return err
	}
	logging.Init(level, config.Log.Format, cmd.ErrOrStderr())
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	srv, err := reviewgate.New(ctx, reviewgate.WithConfig(config), reviewgate.WithLogger(logging.New("cli")))
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err = srv.Start(ctx); err != nil {
		return err
	}
	return fn(ctx, srv)
}

// render writes v to the command output in the selected format.
func render(cmd *cobra.Command, v interface{}) error {
	out := cmd.OutOrStdout()
	switch rootFlags.output {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	case "yaml", "":
		encoder := yaml.NewEncoder(out)
		encoder.SetIndent(2)
		if err := encoder.Encode(v); err != nil {
			return err
		}
		return encoder.Close()
	}
	return fmt.Errorf("unsupported output format: %q", rootFlags.output)
}

// contentFlags collect artifact content from flags or a YAML draft file
type contentFlags struct {
	file   string
	title  string
	tasks  []string
	phases []string
}

func (c *contentFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&c.file, "file", "f", "", "YAML draft URL (kind, title, ownerId, reviewTiers, details)")
	f.StringVar(&c.title, "title", "", "Artifact title")
	f.StringArrayVar(&c.tasks, "task", nil, "Report task as \"title: body\" (repeatable)")
	f.StringArrayVar(&c.phases, "phase", nil, "Proposal phase as \"title: body\" (repeatable)")
}

// draft merges the file (if any) with explicit flags; flags win.
func (c *contentFlags) draft(ctx context.Context) (*coordinator.Draft, error) {
	ret := &coordinator.Draft{}
	if c.file != "" {
		data, err := afs.New().DownloadWithURL(ctx, c.file)
		if err != nil {
			return nil, fmt.Errorf("failed to read draft %v: %w", c.file, err)
		}
		if err = yaml.Unmarshal(data, ret); err != nil {
			return nil, fmt.Errorf("failed to decode draft %v: %w", c.file, err)
		}
	}
	if c.title != "" {
		ret.Title = c.title
	}
	records := append(parseRecords(detail.KindTask, c.tasks), parseRecords(detail.KindPhase, c.phases)...)
	if len(records) > 0 {
		ret.Details = records
	}
	return ret, nil
}

// parseRecords turns "title: body" items into records
func parseRecords(kind detail.Kind, items []string) []*detail.Record {
	var ret []*detail.Record
	for _, item := range items {
		title, body, _ := strings.Cut(item, ":")
		ret = append(ret, &detail.Record{Kind: kind, Title: strings.TrimSpace(title), Body: strings.TrimSpace(body)})
	}
	return ret
}

func parseTier(text string) (artifact.Tier, error) {
	tier, err := artifact.ParseTier(text)
	if err != nil {
		return "", err
	}
	if !tier.IsHuman() {
		return "", fmt.Errorf("tier %v has no human reviewers", tier)
	}
	return tier, nil
}

// revision builds a Revision; records are replaced only when some were given.
func (c *contentFlags) revision(ctx context.Context) (*coordinator.Revision, error) {
	draft, err := c.draft(ctx)
	if err != nil {
		return nil, err
	}
	return &coordinator.Revision{Title: draft.Title, Details: draft.Details}, nil
}
