// Package week computes the Monday-anchored partition key that groups
// governance records and drive folders by calendar week. Container naming
// and record partitioning both go through this package so that their keys
// stay byte-identical.
package week

import "time"

// Key identifies the Monday that begins a calendar week, formatted
// as zero-padded "YYYY-MM-DD". Keys sort lexicographically in week order.
type Key string

// Clock supplies the current time. Injectable for tests.
type Clock func() time.Time

// KeyFor returns the key of the week containing t. Sunday is treated as
// day 7 of the prior week, so a Sunday maps to the Monday six days back.
func KeyFor(t time.Time) Key {
	back := int(t.Weekday()) - 1
	if t.Weekday() == time.Sunday {
		back = 6
	}
	monday := t.AddDate(0, 0, -back)
	return Key(monday.Format("2006-01-02"))
}

// Current returns the key of the week containing now(). A nil clock falls
// back to time.Now.
func Current(now Clock) Key {
	if now == nil {
		now = time.Now
	}
	return KeyFor(now())
}

// FolderName returns the drive folder name for the week, e.g.
// "Week 2026-08-24".
func FolderName(k Key) string {
	return "Week " + string(k)
}

func (k Key) String() string {
	return string(k)
}
