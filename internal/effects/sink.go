package effects

import (
	"errors"

	"github.com/jackchuka/gitfx/internal/model"
)

// ErrSinkClosed is returned by a sink fired after Close.
var ErrSinkClosed = errors.New("effect sink closed")

// Sink presents effects. It is owned by the Dispatcher, which opens it on
// demand and closes it once nothing has been shown for the display duration.
type Sink interface {
	Fire(p model.EffectPayload) error
	Close() error
}

// SinkFactory creates a fresh Sink for every Open.
type SinkFactory interface {
	Open() (Sink, error)
}

// SinkFactoryFunc adapts a function to SinkFactory.
type SinkFactoryFunc func() (Sink, error)

func (f SinkFactoryFunc) Open() (Sink, error) {
	return f()
}
