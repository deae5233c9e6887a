package models

import (
	"fmt"
	"time"
)

type Deadline struct {
	Name string    `json:"name"`
	Due  time.Time `json:"due"`
}

// Schedule maps an assignment name to its due timestamp.
type Schedule map[string]time.Time

type TimeToDeadline struct {
	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// NewTimeToDeadline splits d into whole days, hours, minutes and seconds.
// Sub-second remainders are dropped.
func NewTimeToDeadline(d time.Duration) TimeToDeadline {
	total := int64(d / time.Second)
	days := total / 86400
	total %= 86400
	hours := total / 3600
	total %= 3600
	minutes := total / 60

	return TimeToDeadline{
		Days:    int(days),
		Hours:   int(hours),
		Minutes: int(minutes),
		Seconds: int(total % 60),
	}
}

func (t TimeToDeadline) Duration() time.Duration {
	return time.Duration(t.Days)*24*time.Hour +
		time.Duration(t.Hours)*time.Hour +
		time.Duration(t.Minutes)*time.Minute +
		time.Duration(t.Seconds)*time.Second
}

func (t TimeToDeadline) String() string {
	return fmt.Sprintf("%dd %dh %dm %ds", t.Days, t.Hours, t.Minutes, t.Seconds)
}

type UpcomingDeadline struct {
	Deadline  Deadline       `json:"deadline"`
	Remaining TimeToDeadline `json:"remaining"`
}
