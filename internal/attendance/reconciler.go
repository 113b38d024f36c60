package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// Event is a matched recognition reduced to what reconciliation needs.
type Event struct {
	EmployeeID int64
	CameraID   int64
	RegionID   *int64 // region of the employee, nil when unassigned
	OccurredAt time.Time
	FaceImage  string
	ThumbImage string
	Similarity float64
}

// Reconciler folds recognition events into one attendance row per
// employee and UTC day. The first event of the day checks the employee
// in, every later event moves the check-out forward.
type Reconciler struct {
	store     database.AttendanceStore
	policy    *Policy
	recounter *Recounter
}

// NewReconciler creates a reconciler. recounter may be nil in tests.
func NewReconciler(store database.AttendanceStore, policy *Policy, recounter *Recounter) *Reconciler {
	return &Reconciler{store: store, policy: policy, recounter: recounter}
}

// Day truncates a timestamp to its UTC calendar day.
func Day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Record applies one event. It returns the resulting day row and whether
// this event opened the day. Losing an insert race is not an error: the
// event simply lands on the check-out path, same as any repeat sighting.
func (r *Reconciler) Record(ctx context.Context, ev Event) (*database.AttendanceRecord, bool, error) {
	day := Day(ev.OccurredAt)
	at := ev.OccurredAt

	rec := &database.AttendanceRecord{
		EmployeeID: ev.EmployeeID,
		CameraID:   &ev.CameraID,
		RegionID:   ev.RegionID,
		Date:       day,
		CheckIn:    &at,
		Status:     r.policy.StatusAt(ev.OccurredAt),
		FaceImage:  ev.FaceImage,
		ThumbImage: ev.ThumbImage,
		Similarity: ev.Similarity,
	}

	created, err := r.store.StartDay(ctx, rec)
	if err != nil {
		return nil, false, fmt.Errorf("start day: %w", err)
	}
	if created {
		r.scheduleRecount(ev.RegionID)
		return rec, true, nil
	}

	updated, err := r.store.CloseDay(ctx, ev.EmployeeID, day, at, ev.FaceImage, ev.ThumbImage, ev.Similarity)
	if err != nil {
		return nil, false, fmt.Errorf("close day: %w", err)
	}
	// A recount is cheap and idempotent, so both branches schedule one
	// rather than relying on the close path never changing the status.
	r.scheduleRecount(ev.RegionID)
	return updated, false, nil
}

func (r *Reconciler) scheduleRecount(regionID *int64) {
	if r.recounter == nil || regionID == nil {
		return
	}
	r.recounter.Schedule(*regionID)
}
