// Package quarantine manages unknown-face detections: storing them,
// suggesting employees they might belong to, and promoting them into
// reference images.
package quarantine

import (
	"context"
	"fmt"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// ErrInactiveEmployee is returned when a detection is linked to an
// employee that has been deactivated. An inactive employee is not a
// valid link target, so the error matches database.ErrNotFound.
var ErrInactiveEmployee = fmt.Errorf("employee is not active: %w", database.ErrNotFound)

// Service coordinates the quarantine store, the employee directory and
// the in-memory candidate index.
type Service struct {
	store     database.QuarantineStore
	directory database.EmployeeReader
	index     *database.CandidateIndex
}

// NewService creates a quarantine service. index may be nil when
// candidate suggestions are not needed.
func NewService(store database.QuarantineStore, directory database.EmployeeReader, index *database.CandidateIndex) *Service {
	return &Service{store: store, directory: directory, index: index}
}

// Quarantine stores an unmatched detection. Every detection gets its own
// row, repeats of the same person included; merging is a human decision
// made later through promotion.
func (s *Service) Quarantine(ctx context.Context, face *database.UnknownFace) error {
	if err := s.store.InsertUnknownFace(ctx, face); err != nil {
		return fmt.Errorf("quarantine detection: %w", err)
	}
	return nil
}

// Get retrieves a single detection.
func (s *Service) Get(ctx context.Context, id int64) (*database.UnknownFace, error) {
	return s.store.GetUnknownFace(ctx, id)
}

// List lists detections, most recent first. processed nil lists all.
func (s *Service) List(ctx context.Context, processed *bool, limit int) ([]database.UnknownFace, error) {
	return s.store.ListUnknownFaces(ctx, processed, limit)
}

// Promote links a detection to an employee, creating a reference image
// from the stored crop. The operation is exactly-once: a detection that
// was already promoted yields database.ErrConflict. Newly created
// reference images join the candidate index immediately.
func (s *Service) Promote(ctx context.Context, detectionID, employeeID int64) (*database.ReferenceImage, error) {
	employee, err := s.directory.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("load employee %d: %w", employeeID, err)
	}
	if !employee.Active {
		return nil, fmt.Errorf("employee %s: %w", employee.Code, ErrInactiveEmployee)
	}

	img, err := s.store.PromoteUnknownFace(ctx, detectionID, employeeID)
	if err != nil {
		return nil, err
	}
	if s.index != nil {
		s.index.Add(*img)
	}
	return img, nil
}

// Candidates suggests up to k employees for a detection, nearest first.
// Detections without a face encoding have no candidates.
func (s *Service) Candidates(ctx context.Context, detectionID int64, k int) ([]database.Candidate, error) {
	if k <= 0 {
		k = 5
	}
	face, err := s.store.GetUnknownFace(ctx, detectionID)
	if err != nil {
		return nil, err
	}
	if len(face.FaceEncoding) == 0 || s.index == nil {
		return nil, nil
	}
	return s.index.Search(face.FaceEncoding, k)
}
