// Package attendance reconciles recognition events into one attendance
// row per employee and day and keeps the region counters fresh.
package attendance

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
)

// Policy decides the status of a freshly opened day row from the
// check-in time against the configured workday start.
type Policy struct {
	startHour   int
	startMinute int
	grace       time.Duration
}

// NewPolicy parses the workday schedule. The start time is "HH:MM".
func NewPolicy(cfg config.WorkdayConfig) (*Policy, error) {
	parts := strings.SplitN(cfg.Start, ":", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid workday start %q, expected HH:MM", cfg.Start)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return nil, fmt.Errorf("invalid workday start hour in %q", cfg.Start)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return nil, fmt.Errorf("invalid workday start minute in %q", cfg.Start)
	}
	if cfg.GraceMinutes < 0 {
		return nil, fmt.Errorf("grace minutes must not be negative, got %d", cfg.GraceMinutes)
	}
	return &Policy{
		startHour:   hour,
		startMinute: minute,
		grace:       time.Duration(cfg.GraceMinutes) * time.Minute,
	}, nil
}

// StatusAt returns the day status for a check-in at the given time.
// Arrivals within the grace window after workday start count as on time.
func (p *Policy) StatusAt(checkIn time.Time) string {
	deadline := time.Date(
		checkIn.Year(), checkIn.Month(), checkIn.Day(),
		p.startHour, p.startMinute, 0, 0, checkIn.Location(),
	).Add(p.grace)
	if checkIn.After(deadline) {
		return database.StatusLate
	}
	return database.StatusCame
}
