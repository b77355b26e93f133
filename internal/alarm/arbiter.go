// Package alarm arbitrates the single shared alarm resource. Exactly one
// Arbiter exists per process (injected, never a free-floating global),
// and it owns every start/stop decision: after any reminder mutation or
// poll tick, Recompute rescans the full loaded reminder set and derives
// whether the alarm should sound. Per-reminder counters are deliberately
// absent; they drift under concurrent mutation and are how "muting one
// reminder silences another's alarm" bugs happen.
package alarm

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/leadcore/go-crm-backend/internal/domain"
)

var (
	// alarmPlaying tracks whether the shared alarm is currently sounding.
	alarmPlaying = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "alarm_playing",
		Help: "Whether the shared reminder alarm is currently sounding (0/1).",
	})

	// alarmTransitions counts start/stop transitions of the alarm.
	alarmTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alarm_transitions_total",
			Help: "Start/stop transitions of the shared reminder alarm.",
		},
		[]string{"to"}, // playing | silent
	)
)

func init() {
	prometheus.MustRegister(alarmPlaying, alarmTransitions)
}

// Sounder is the actual audio/notification channel. Start and Stop must
// both be idempotent; the arbiter additionally only calls them on state
// transitions.
type Sounder interface {
	Start()
	Stop()
}

// Source exposes the full set of reminders currently loaded across all
// open leads. Recompute always scans this whole set, never a single
// reminder in isolation.
type Source interface {
	LoadedReminders() []domain.Reminder
}

// Arbiter derives the alarm state from the live reminder set. AlarmState
// is a cache of a predicate, not a source of truth: it is fully
// re-derivable at any time by calling Recompute.
type Arbiter struct {
	mu      sync.Mutex
	sounder Sounder
	source  Source
	playing bool
	log     zerolog.Logger
}

// New constructs an Arbiter, initially silent. Bind the reminder source
// before the first Recompute.
func New(sounder Sounder, log zerolog.Logger) *Arbiter {
	return &Arbiter{
		sounder: sounder,
		log:     log.With().Str("component", "alarm").Logger(),
	}
}

// Bind attaches the reminder source. Separate from New because the
// reminder store and the arbiter reference each other.
func (a *Arbiter) Bind(src Source) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.source = src
}

// Playing reports whether the alarm is currently sounding.
func (a *Arbiter) Playing() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.playing
}

// Recompute re-derives the alarm state: it scans every loaded reminder
// and starts the alarm if at least one is due, sound-enabled, and not in
// a terminal state, otherwise stops it. Muting or completing one
// reminder therefore never silences an alarm another reminder is still
// owed ("last one out" policy).
func (a *Arbiter) Recompute(now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()

	should := false
	if a.source != nil {
		for _, r := range a.source.LoadedReminders() {
			if r.ShouldSound(now) {
				should = true
				break
			}
		}
	}

	switch {
	case should && !a.playing:
		a.playing = true
		a.sounder.Start()
		alarmPlaying.Set(1)
		alarmTransitions.WithLabelValues("playing").Inc()
		a.log.Info().Msg("alarm started")
	case !should && a.playing:
		a.playing = false
		a.sounder.Stop()
		alarmPlaying.Set(0)
		alarmTransitions.WithLabelValues("silent").Inc()
		a.log.Info().Msg("alarm stopped")
	}
}
