package reviewgate_test

import (
	"context"
	"embed"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "github.com/viant/afs/embed"
	"github.com/viant/reviewgate"
	"github.com/viant/reviewgate/service/messaging"
)

//go:embed testdata/*
var embedFS embed.FS

func TestLoadConfig(t *testing.T) {
	t.Setenv("REVIEWGATE_STORE_DSN", "/var/lib/reviewgate.db")
	t.Setenv("REVIEWGATE_ANALYSIS_WORKERS", "8")
	t.Setenv("REVIEWGATE_TEST_HOME", "/home/ci")

	config, err := reviewgate.LoadConfig(context.Background(), "embed:///testdata/config.yaml", &embedFS)
	require.NoError(t, err)
	assert.Equal(t, 0.8, config.Gate.Threshold)
	assert.Equal(t, reviewgate.ModeInline, config.Analysis.Mode)
	assert.Equal(t, 10*time.Second, config.Analysis.Timeout)
	assert.Equal(t, 2, config.Analysis.Heuristic.ExpectedRecords)
	assert.Equal(t, 8, config.Analysis.Workers)
	assert.Equal(t, reviewgate.StoreSQLite, config.Store.Driver)
	assert.Equal(t, "/var/lib/reviewgate.db", config.Store.DSN)
	assert.True(t, config.Notify.Events)
	assert.False(t, config.Notify.Log)
	assert.Equal(t, "json", config.Log.Format)
	assert.Equal(t, "/home/ci/trace.json", config.Tracing.OutputFile)
	// sections absent from the document keep their defaults
	assert.Equal(t, messaging.VendorMemory, config.Queue.Vendor)
}

func TestConfig_Validate(t *testing.T) {
	var testCases = []struct {
		description string
		mutate      func(c *reviewgate.Config)
		expectErr   string
	}{
		{description: "defaults are valid", mutate: func(c *reviewgate.Config) {}},
		{description: "threshold above one", mutate: func(c *reviewgate.Config) { c.Gate.Threshold = 1.5 }, expectErr: "gate.threshold"},
		{description: "unknown provider", mutate: func(c *reviewgate.Config) { c.Analysis.Provider = "oracle" }, expectErr: "analysis.provider"},
		{description: "remote without url", mutate: func(c *reviewgate.Config) { c.Analysis.Provider = reviewgate.ProviderRemote }, expectErr: "analysis.remote.url"},
		{description: "async without workers", mutate: func(c *reviewgate.Config) { c.Analysis.Workers = 0 }, expectErr: "analysis.workers"},
		{description: "inline without workers", mutate: func(c *reviewgate.Config) { c.Analysis.Mode = reviewgate.ModeInline; c.Analysis.Workers = 0 }},
		{description: "sqlite without dsn", mutate: func(c *reviewgate.Config) { c.Store.Driver = reviewgate.StoreSQLite }, expectErr: "store.dsn"},
		{description: "fs queue without base url", mutate: func(c *reviewgate.Config) { c.Queue.Vendor = messaging.VendorFS }, expectErr: "queue.baseURL"},
		{description: "unknown log level", mutate: func(c *reviewgate.Config) { c.Log.Level = "loud" }, expectErr: "log.level"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			config := reviewgate.DefaultConfig()
			testCase.mutate(config)
			err := config.Validate()
			if testCase.expectErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), testCase.expectErr)
		})
	}
}

func TestConfig_ApplyEnv(t *testing.T) {
	env := map[string]string{
		"REVIEWGATE_GATE_THRESHOLD":  "0.55",
		"REVIEWGATE_LOCK_VENDOR":     "redis",
		"REVIEWGATE_REDIS_ADDR":      "cache:6379",
		"REVIEWGATE_QUEUE_VENDOR":    "fs",
		"REVIEWGATE_QUEUE_BASE_URL":  "file:///tmp/queues",
		"REVIEWGATE_TRACING_ENABLED": "true",
	}
	lookup := func(key string) (string, bool) {
		value, ok := env[key]
		return value, ok
	}
	config := reviewgate.DefaultConfig()
	require.NoError(t, config.ApplyEnv(lookup))
	assert.Equal(t, 0.55, config.Gate.Threshold)
	assert.EqualValues(t, "redis", config.Lock.Vendor)
	assert.Equal(t, "cache:6379", config.Lock.Redis.Addr)
	assert.Equal(t, messaging.VendorFS, config.Queue.Vendor)
	assert.Equal(t, "file:///tmp/queues", config.Queue.BaseURL)
	assert.True(t, config.Tracing.Enabled)
	assert.NoError(t, config.Validate())

	env["REVIEWGATE_GATE_THRESHOLD"] = "high"
	env["REVIEWGATE_ANALYSIS_TIMEOUT"] = "soon"
	err := reviewgate.DefaultConfig().ApplyEnv(lookup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GATE_THRESHOLD")
	assert.Contains(t, err.Error(), "ANALYSIS_TIMEOUT")
}
