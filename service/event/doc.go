// Package event defines artifact lifecycle events and a queue backed
// publisher/listener pair for delivering them.
package event
