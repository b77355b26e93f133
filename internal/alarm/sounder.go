package alarm

import "github.com/rs/zerolog"

// LogSounder is the default Sounder: it surfaces the alarm channel as
// structured log events for the UI layer to pick up. Both methods are
// idempotent: repeating a call in the current state does nothing.
type LogSounder struct {
	log    zerolog.Logger
	active bool
}

// NewLogSounder builds a LogSounder on the given logger.
func NewLogSounder(log zerolog.Logger) *LogSounder {
	return &LogSounder{log: log.With().Str("component", "sounder").Logger()}
}

// Start begins sounding. Calling twice has the same effect as once.
func (s *LogSounder) Start() {
	if s.active {
		return
	}
	s.active = true
	s.log.Info().Bool("playing", true).Msg("alarm channel on")
}

// Stop ends sounding. Calling twice has the same effect as once.
func (s *LogSounder) Stop() {
	if !s.active {
		return
	}
	s.active = false
	s.log.Info().Bool("playing", false).Msg("alarm channel off")
}
