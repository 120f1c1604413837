package derive

import (
	"fmt"
	"time"

	"github.com/sandeepkv93/studyd/internal/model"
)

type Countdown struct {
	Title   string
	Days    int
	Hours   int
	Minutes int
	Seconds int
	Expired bool
}

// Clock renders the remaining time as "DDd HH:MM:SS".
func (c Countdown) Clock() string {
	return fmt.Sprintf("%02dd %02d:%02d:%02d", c.Days, c.Hours, c.Minutes, c.Seconds)
}

// CountdownAt computes the time left until the configured target. A target
// that cannot be parsed counts as expired.
func CountdownAt(settings model.CountdownSettings, now time.Time, loc *time.Location) Countdown {
	out := Countdown{Title: settings.Title}
	if loc == nil {
		loc = time.Local
	}
	clock := settings.TargetTime
	if clock == "" {
		clock = "00:00"
	}
	target, err := time.ParseInLocation("2006-01-02 15:04", settings.TargetDate+" "+clock, loc)
	if err != nil {
		out.Expired = true
		return out
	}

	left := target.Sub(now)
	if left <= 0 {
		out.Expired = true
		return out
	}
	secs := int64(left / time.Second)
	out.Days = int(secs / 86400)
	out.Hours = int(secs % 86400 / 3600)
	out.Minutes = int(secs % 3600 / 60)
	out.Seconds = int(secs % 60)
	return out
}
