package domain

import "time"

// IsDue reports whether the reminder's trigger instant has passed,
// accounting for snoozing. It is a pure function of the stored fields and
// the supplied clock; the result must never be cached on the reminder,
// since that would require a mutation on every tick to stay correct.
//
// A pending reminder is due once now reaches DueAt. A snoozed reminder is
// due once now reaches SnoozedUntil, irrespective of the original DueAt.
// Terminal reminders are never due.
func (r Reminder) IsDue(now time.Time) bool {
	switch r.Status {
	case StatusPending:
		return !now.Before(r.DueAt)
	case StatusSnoozed:
		return r.SnoozedUntil != nil && !now.Before(*r.SnoozedUntil)
	}
	return false
}

// ShouldSound reports whether this reminder, on its own, entitles the
// shared alarm to play: due, sound-enabled, and not completed/dismissed.
// The alarm arbiter evaluates this across the full loaded set; a single
// reminder's answer never starts or stops the alarm by itself.
func (r Reminder) ShouldSound(now time.Time) bool {
	return r.IsDue(now) && r.SoundEnabled && !r.Status.Terminal()
}
