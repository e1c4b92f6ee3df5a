package idgen

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// NewFunc returns a new globally unique identifier.
var NewFunc = func() string { return uuid.New().String() }

// New returns a new identifier.
func New() string { return NewFunc() }

// Sequence replaces NewFunc with a deterministic prefix-N generator and
// returns a function restoring the previous generator.
func Sequence(prefix string) (restore func()) {
	previous := NewFunc
	var counter int64
	NewFunc = func() string {
		return fmt.Sprintf("%s%d", prefix, atomic.AddInt64(&counter, 1))
	}
	return func() { NewFunc = previous }
}
