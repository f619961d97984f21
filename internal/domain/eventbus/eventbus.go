// Package eventbus is a thin wrapper around a process-wide event bus.
// Pipeline stages publish progress events here so cross-cutting
// listeners (logging, counters) stay out of the pipeline code.
package eventbus

import (
	"sync"

	evbus "github.com/asaskevich/EventBus"
)

var (
	instance evbus.Bus
	once     sync.Once
)

// Get returns the shared event bus instance.
func Get() evbus.Bus {
	once.Do(func() {
		instance = New()
	})
	return instance
}

// New creates an independent bus, used by tests.
func New() evbus.Bus {
	return evbus.New()
}

func Publish(topic string, args ...interface{}) {
	Get().Publish(topic, args...)
}

func Subscribe(topic string, fn interface{}) error {
	return Get().Subscribe(topic, fn)
}

func Unsubscribe(topic string, fn interface{}) error {
	return Get().Unsubscribe(topic, fn)
}
