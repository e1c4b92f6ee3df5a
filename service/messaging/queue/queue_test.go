package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/reviewgate/service/messaging"
	"github.com/viant/reviewgate/service/messaging/fs"
	"github.com/viant/reviewgate/service/messaging/memory"
)

func TestNew(t *testing.T) {
	q, err := New[string](messaging.DefaultConfig(), "analysis", nil)
	require.NoError(t, err)
	assert.IsType(t, &memory.Queue[string]{}, q)

	config := messaging.DefaultConfig()
	config.Vendor = messaging.VendorFS
	_, err = New[string](config, "analysis", nil)
	assert.Error(t, err)

	config.BaseURL = t.TempDir()
	q, err = New[string](config, "analysis", nil)
	require.NoError(t, err)
	assert.IsType(t, &fs.Queue[string]{}, q)

	config.Vendor = "kafka"
	_, err = New[string](config, "analysis", nil)
	assert.Error(t, err)
}
