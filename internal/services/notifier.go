package services

import "github.com/rs/zerolog"

// Notifier is the fire-and-forget sink for user-visible success/error
// toasts. It is not part of the subsystem's correctness; implementations
// must never block or fail the calling operation.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// LogNotifier surfaces notifications as structured log events for the UI
// layer to pick up.
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier builds a LogNotifier on the given logger.
func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log.With().Str("component", "notifier").Logger()}
}

// Success emits a success toast.
func (n *LogNotifier) Success(msg string) {
	n.log.Info().Str("toast", "success").Msg(msg)
}

// Error emits an error toast.
func (n *LogNotifier) Error(msg string) {
	n.log.Warn().Str("toast", "error").Msg(msg)
}
