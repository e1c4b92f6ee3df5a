// Package queue builds messaging.Queue instances from messaging.Config.
package queue

import (
	"fmt"
	"path"

	"github.com/viant/afs"
	"github.com/viant/reviewgate/service/messaging"
	"github.com/viant/reviewgate/service/messaging/fs"
	"github.com/viant/reviewgate/service/messaging/memory"
)

// New returns a queue named name for the configured vendor. For the fs vendor
// the queue lives under BaseURL/name.
func New[T any](config messaging.Config, name string, service afs.Service) (messaging.Queue[T], error) {
	switch config.Vendor {
	case messaging.VendorMemory, "":
		return memory.NewQueue[T](memory.Config{
			Buffer:     config.Buffer,
			MaxRetries: config.MaxRetries,
			RetryDelay: config.RetryDelay,
			DeadLetter: true,
		}), nil
	case messaging.VendorFS:
		if config.BaseURL == "" {
			return nil, fmt.Errorf("queue %v: baseURL is required for fs vendor", name)
		}
		if service == nil {
			service = afs.New()
		}
		return fs.NewQueue[T](service, fs.Config{
			BaseURL:      path.Join(config.BaseURL, name),
			MaxRetries:   config.MaxRetries,
			RetryDelay:   config.RetryDelay,
			PollInterval: config.PollInterval,
		})
	}
	return nil, fmt.Errorf("unsupported queue vendor: %s", config.Vendor)
}
