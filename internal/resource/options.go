package resource

import (
	"time"

	"go.uber.org/zap"
)

const (
	DefaultMaxAttempts = 2
	DefaultLoadTimeout = 30 * time.Second
)

// Options configures a Cache.
type Options struct {
	// MaxAge bounds how long a ready entry is served; zero means until invalidated.
	MaxAge time.Duration
	// MaxAttempts is the number of loader calls per fetch for transport failures.
	MaxAttempts uint
	// LoadTimeout bounds one fetch including retries.
	LoadTimeout time.Duration

	Logger *zap.Logger
	Clock  func() time.Time
}

func DefaultOptions() Options {
	return Options{
		MaxAttempts: DefaultMaxAttempts,
		LoadTimeout: DefaultLoadTimeout,
		Logger:      zap.NewNop(),
		Clock:       time.Now,
	}
}

type Option func(*Options)

func WithMaxAge(d time.Duration) Option {
	return func(o *Options) { o.MaxAge = d }
}

func WithMaxAttempts(n uint) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxAttempts = n
		}
	}
}

func WithLoadTimeout(d time.Duration) Option {
	return func(o *Options) { o.LoadTimeout = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Options) {
		if now != nil {
			o.Clock = now
		}
	}
}
