// Package logger provides the configured zerolog logger for journali binaries.
package logger

import (
	"io"
	"os"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	zpkgerrors "github.com/rs/zerolog/pkgerrors"
)

type stackTracer interface{ StackTrace() pkgerrors.StackTrace }

var marshalOnce sync.Once

// Errors logged with .Stack() render a pkg/errors stack; errors without one
// get a stack attached at the logging site.
func installErrorMarshalers() {
	zerolog.ErrorStackMarshaler = func(err error) interface{} {
		if _, ok := err.(stackTracer); !ok {
			err = pkgerrors.WithStack(err)
		}
		return zpkgerrors.MarshalStack(err)
	}
	zerolog.ErrorMarshalFunc = func(err error) interface{} {
		if _, ok := err.(stackTracer); ok {
			return err
		}
		return pkgerrors.WithStack(err)
	}
}

type options struct {
	w     io.Writer
	level zerolog.Level
}

// Option customises New.
type Option func(*options)

// WithWriter sends output to w instead of stdout.
func WithWriter(w io.Writer) Option {
	return func(o *options) { o.w = w }
}

// WithLevel sets the global level from a name such as "debug". Unknown names keep info.
func WithLevel(name string) Option {
	return func(o *options) {
		if lvl, err := zerolog.ParseLevel(name); err == nil && lvl != zerolog.NoLevel {
			o.level = lvl
		}
	}
}

// New returns a JSON logger tagged with the service name.
// Call sites should use .Stack() on error events to include stacks.
func New(serviceName string, opts ...Option) zerolog.Logger {
	marshalOnce.Do(installErrorMarshalers)

	o := options{w: os.Stdout, level: zerolog.InfoLevel}
	for _, opt := range opts {
		opt(&o)
	}
	zerolog.SetGlobalLevel(o.level)

	return zerolog.New(o.w).With().
		Str("service", serviceName).
		Timestamp().
		Logger()
}
