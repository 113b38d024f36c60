package attendance

import (
	"testing"
	"time"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
)

func TestNewPolicyInvalid(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.WorkdayConfig
	}{
		{"missing colon", config.WorkdayConfig{Start: "0900"}},
		{"bad hour", config.WorkdayConfig{Start: "25:00"}},
		{"bad minute", config.WorkdayConfig{Start: "09:61"}},
		{"not a number", config.WorkdayConfig{Start: "nine:00"}},
		{"negative grace", config.WorkdayConfig{Start: "09:00", GraceMinutes: -5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewPolicy(tt.cfg); err == nil {
				t.Errorf("expected error for %+v", tt.cfg)
			}
		})
	}
}

func TestStatusAt(t *testing.T) {
	policy, err := NewPolicy(config.WorkdayConfig{Start: "09:00", GraceMinutes: 15})
	if err != nil {
		t.Fatalf("failed to create policy: %v", err)
	}

	tests := []struct {
		name    string
		checkIn time.Time
		want    string
	}{
		{"early", time.Date(2025, 6, 2, 7, 30, 0, 0, time.UTC), database.StatusCame},
		{"on the dot", time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC), database.StatusCame},
		{"within grace", time.Date(2025, 6, 2, 9, 14, 59, 0, time.UTC), database.StatusCame},
		{"grace boundary", time.Date(2025, 6, 2, 9, 15, 0, 0, time.UTC), database.StatusCame},
		{"one second late", time.Date(2025, 6, 2, 9, 15, 1, 0, time.UTC), database.StatusLate},
		{"afternoon", time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC), database.StatusLate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := policy.StatusAt(tt.checkIn); got != tt.want {
				t.Errorf("StatusAt(%v) = %q, want %q", tt.checkIn, got, tt.want)
			}
		})
	}
}

func TestStatusAtZeroGrace(t *testing.T) {
	policy, err := NewPolicy(config.WorkdayConfig{Start: "08:30"})
	if err != nil {
		t.Fatalf("failed to create policy: %v", err)
	}
	if got := policy.StatusAt(time.Date(2025, 6, 2, 8, 30, 1, 0, time.UTC)); got != database.StatusLate {
		t.Errorf("expected late one second after start without grace, got %q", got)
	}
}
