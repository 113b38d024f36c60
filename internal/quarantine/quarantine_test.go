package quarantine

import (
	"context"
	"errors"
	"testing"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/mock"
)

func seedDetection(t *testing.T, store *mock.Store, encoding []float32) *database.UnknownFace {
	t.Helper()
	face := &database.UnknownFace{
		CameraID:     1,
		FaceImage:    "unknown/x.jpg",
		Similarity:   0.42,
		FaceEncoding: encoding,
	}
	if err := store.InsertUnknownFace(context.Background(), face); err != nil {
		t.Fatalf("failed to seed detection: %v", err)
	}
	return face
}

func TestQuarantineKeepsSeparateRows(t *testing.T) {
	store := mock.NewStore()
	svc := NewService(store, store, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := svc.Quarantine(ctx, &database.UnknownFace{CameraID: 1, FaceImage: "unknown/a.jpg"}); err != nil {
			t.Fatalf("failed to quarantine: %v", err)
		}
	}
	if got := store.UnknownFaceCount(); got != 3 {
		t.Errorf("expected 3 quarantine rows, got %d", got)
	}
}

func TestPromote(t *testing.T) {
	store := mock.NewStore()
	employee := store.AddEmployee(database.Employee{Code: "EMP0001", FirstName: "Jana", LastName: "Nova", Active: true})
	index := database.NewCandidateIndex()
	svc := NewService(store, store, index)
	ctx := context.Background()

	face := seedDetection(t, store, []float32{0.1, 0.2, 0.3})

	img, err := svc.Promote(ctx, face.ID, employee.ID)
	if err != nil {
		t.Fatalf("failed to promote: %v", err)
	}
	if img.EmployeeID != employee.ID {
		t.Errorf("expected image owned by employee %d, got %d", employee.ID, img.EmployeeID)
	}
	if !img.IsPrimary {
		t.Error("expected first reference image to become primary")
	}
	if img.Path != face.FaceImage {
		t.Errorf("expected image to carry over the crop path, got %q", img.Path)
	}
	if index.Count() != 1 {
		t.Errorf("expected promoted image in the candidate index, got %d entries", index.Count())
	}

	updated, err := svc.Get(ctx, face.ID)
	if err != nil {
		t.Fatalf("failed to load detection: %v", err)
	}
	if !updated.Processed {
		t.Error("expected detection marked processed")
	}
	if updated.LinkedEmployeeID == nil || *updated.LinkedEmployeeID != employee.ID {
		t.Errorf("expected detection linked to employee %d, got %v", employee.ID, updated.LinkedEmployeeID)
	}
}

func TestPromoteExactlyOnce(t *testing.T) {
	store := mock.NewStore()
	employee := store.AddEmployee(database.Employee{Code: "EMP0001", FirstName: "Jana", LastName: "Nova", Active: true})
	svc := NewService(store, store, nil)
	ctx := context.Background()

	face := seedDetection(t, store, nil)

	if _, err := svc.Promote(ctx, face.ID, employee.ID); err != nil {
		t.Fatalf("first promotion failed: %v", err)
	}
	_, err := svc.Promote(ctx, face.ID, employee.ID)
	if !errors.Is(err, database.ErrConflict) {
		t.Errorf("expected ErrConflict on second promotion, got %v", err)
	}
	if got := store.ReferenceImageCount(); got != 1 {
		t.Errorf("expected exactly one reference image, got %d", got)
	}
}

func TestPromoteUnknownEmployee(t *testing.T) {
	store := mock.NewStore()
	svc := NewService(store, store, nil)

	face := seedDetection(t, store, nil)
	_, err := svc.Promote(context.Background(), face.ID, 999)
	if !errors.Is(err, database.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing employee, got %v", err)
	}
}

func TestPromoteInactiveEmployee(t *testing.T) {
	store := mock.NewStore()
	employee := store.AddEmployee(database.Employee{Code: "EMP0001", FirstName: "Jana", LastName: "Nova", Active: false})
	svc := NewService(store, store, nil)

	face := seedDetection(t, store, nil)
	_, err := svc.Promote(context.Background(), face.ID, employee.ID)
	if !errors.Is(err, ErrInactiveEmployee) {
		t.Errorf("expected ErrInactiveEmployee, got %v", err)
	}
}

func TestPromoteMissingDetection(t *testing.T) {
	store := mock.NewStore()
	employee := store.AddEmployee(database.Employee{Code: "EMP0001", FirstName: "Jana", LastName: "Nova", Active: true})
	svc := NewService(store, store, nil)

	_, err := svc.Promote(context.Background(), 12345, employee.ID)
	if !errors.Is(err, database.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing detection, got %v", err)
	}
}

func TestCandidates(t *testing.T) {
	store := mock.NewStore()
	anna := store.AddEmployee(database.Employee{Code: "EMP0001", FirstName: "Anna", LastName: "Svoboda", Active: true})
	petr := store.AddEmployee(database.Employee{Code: "EMP0002", FirstName: "Petr", LastName: "Maly", Active: true})

	index := database.NewCandidateIndex()
	if err := index.Build([]database.ReferenceImage{
		{ID: 1, EmployeeID: anna.ID, FaceEncoding: []float32{1, 0, 0}},
		{ID: 2, EmployeeID: anna.ID, FaceEncoding: []float32{0.99, 0.01, 0}},
		{ID: 3, EmployeeID: petr.ID, FaceEncoding: []float32{0, 1, 0}},
	}); err != nil {
		t.Fatalf("failed to build index: %v", err)
	}

	svc := NewService(store, store, index)
	face := seedDetection(t, store, []float32{0.98, 0.02, 0})

	candidates, err := svc.Candidates(context.Background(), face.ID, 5)
	if err != nil {
		t.Fatalf("failed to search candidates: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected one candidate per employee, got %d", len(candidates))
	}
	if candidates[0].EmployeeID != anna.ID {
		t.Errorf("expected nearest candidate %d, got %d", anna.ID, candidates[0].EmployeeID)
	}
	if candidates[0].Distance > candidates[1].Distance {
		t.Error("expected candidates ordered nearest first")
	}
}

func TestCandidatesWithoutEncoding(t *testing.T) {
	store := mock.NewStore()
	svc := NewService(store, store, database.NewCandidateIndex())

	face := seedDetection(t, store, nil)
	candidates, err := svc.Candidates(context.Background(), face.ID, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if candidates != nil {
		t.Errorf("expected no candidates for an encoding-less detection, got %v", candidates)
	}
}
