// Package progress keeps live per-state artifact counters for dashboards and
// the CLI. A Progress is seeded from the store and then follows committed
// lifecycle events.
package progress
