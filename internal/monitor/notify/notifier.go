// Package notify delivers short alert texts to the user.
package notify

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Notifier sends a single notification text.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Multi fans a notification out to every notifier. All notifiers are tried;
// their errors are joined.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, text string) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Log writes notifications to the structured log.
type Log struct {
	Logger *zap.Logger
}

func (l Log) Notify(_ context.Context, text string) error {
	l.Logger.Info("notification", zap.String("text", text))
	return nil
}

// Func adapts a plain function to Notifier.
type Func func(ctx context.Context, text string) error

func (f Func) Notify(ctx context.Context, text string) error {
	return f(ctx, text)
}
