// backend/internal/infra/logger/logger.go
package logger

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

type ContextKey string

const (
	RequestIDKey ContextKey = "requestID"
	ActorIDKey   ContextKey = "actorID"
)

var base = newBase()

func newBase() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

// Configure applies level and format ("text" | "json") to the shared logger.
// Entries created earlier through For keep working since they share it.
func Configure(level, format string) {
	lv, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lv = logrus.InfoLevel
	}
	base.SetLevel(lv)

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		base.SetFormatter(&logrus.JSONFormatter{})
	default:
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// SetOutput redirects the shared logger (tests).
func SetOutput(w io.Writer) {
	base.SetOutput(w)
}

func Base() *logrus.Logger { return base }

// For returns an entry tagged with the component name.
func For(component string) *logrus.Entry {
	return base.WithField("component", component)
}

// FromContext adds request/actor identifiers found on ctx to e.
func FromContext(ctx context.Context, e *logrus.Entry) *logrus.Entry {
	if e == nil {
		e = logrus.NewEntry(base)
	}
	if ctx == nil {
		return e
	}
	if v, ok := ctx.Value(RequestIDKey).(string); ok && v != "" {
		e = e.WithField("request_id", v)
	}
	if v, ok := ctx.Value(ActorIDKey).(string); ok && v != "" {
		e = e.WithField("actor_id", v)
	}
	return e.WithContext(ctx)
}
