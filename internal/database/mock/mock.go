// Package mock provides in-memory implementations of the database
// interfaces for testing.
package mock

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// Store is an in-memory implementation of every repository interface.
// Zero value is not usable; create with NewStore.
type Store struct {
	mu sync.RWMutex

	employees       map[int64]*database.Employee
	cameras         map[int64]*database.Camera
	regions         map[int64]*database.Region
	attendance      map[int64]*database.AttendanceRecord
	unknownFaces    map[int64]*database.UnknownFace
	referenceImages map[int64]*database.ReferenceImage
	captures        []database.CaptureStat

	nextID       int64
	employeeSeq  int64
	RecountCalls []int64 // region ids passed to RecountRegion, in order

	// Error injection
	EmployeeError   error
	CameraError     error
	RegionError     error
	AttendanceError error
	QuarantineError error
	ReferenceError  error
	CaptureError    error
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		employees:       make(map[int64]*database.Employee),
		cameras:         make(map[int64]*database.Camera),
		regions:         make(map[int64]*database.Region),
		attendance:      make(map[int64]*database.AttendanceRecord),
		unknownFaces:    make(map[int64]*database.UnknownFace),
		referenceImages: make(map[int64]*database.ReferenceImage),
	}
}

func (s *Store) nextIDLocked() int64 {
	s.nextID++
	return s.nextID
}

// AddEmployee seeds an employee, assigning an id when missing.
func (s *Store) AddEmployee(e database.Employee) *database.Employee {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == 0 {
		e.ID = s.nextIDLocked()
	} else if e.ID > s.nextID {
		s.nextID = e.ID
	}
	s.employees[e.ID] = &e
	return &e
}

// AddCamera seeds a camera, assigning an id when missing.
func (s *Store) AddCamera(c database.Camera) *database.Camera {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		c.ID = s.nextIDLocked()
	} else if c.ID > s.nextID {
		s.nextID = c.ID
	}
	s.cameras[c.ID] = &c
	return &c
}

// AddRegion seeds a region, assigning an id when missing.
func (s *Store) AddRegion(r database.Region) *database.Region {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == 0 {
		r.ID = s.nextIDLocked()
	} else if r.ID > s.nextID {
		s.nextID = r.ID
	}
	s.regions[r.ID] = &r
	return &r
}

// --- EmployeeReader / EmployeeWriter ---

func (s *Store) GetEmployee(ctx context.Context, id int64) (*database.Employee, error) {
	if s.EmployeeError != nil {
		return nil, s.EmployeeError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.employees[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *Store) GetEmployeeByCode(ctx context.Context, code string) (*database.Employee, error) {
	if s.EmployeeError != nil {
		return nil, s.EmployeeError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.employees {
		if e.Code == code {
			cp := *e
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

func (s *Store) SearchEmployees(ctx context.Context, normalizedQuery string, activeOnly bool) ([]database.Employee, error) {
	if s.EmployeeError != nil {
		return nil, s.EmployeeError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []database.Employee
	for _, e := range s.employees {
		if activeOnly && !e.Active {
			continue
		}
		name := database.NormalizeName(e.FirstName + " " + e.LastName)
		if normalizedQuery != "" && !strings.Contains(name, normalizedQuery) {
			continue
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CountActiveEmployees(ctx context.Context, regionID int64) (int, error) {
	if s.EmployeeError != nil {
		return 0, s.EmployeeError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, e := range s.employees {
		if !e.Active {
			continue
		}
		if regionID != 0 && (e.RegionID == nil || *e.RegionID != regionID) {
			continue
		}
		count++
	}
	return count, nil
}

func (s *Store) CreateEmployee(ctx context.Context, e *database.Employee) error {
	if s.EmployeeError != nil {
		return s.EmployeeError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employeeSeq++
	e.ID = s.nextIDLocked()
	e.Code = formatEmployeeCode(s.employeeSeq)
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	cp := *e
	s.employees[e.ID] = &cp
	return nil
}

func (s *Store) UpdateEmployee(ctx context.Context, e *database.Employee) error {
	if s.EmployeeError != nil {
		return s.EmployeeError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.employees[e.ID]; !ok {
		return database.ErrNotFound
	}
	cp := *e
	cp.UpdatedAt = time.Now()
	s.employees[e.ID] = &cp
	return nil
}

func (s *Store) DeactivateEmployee(ctx context.Context, id int64) error {
	if s.EmployeeError != nil {
		return s.EmployeeError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.employees[id]
	if !ok {
		return database.ErrNotFound
	}
	e.Active = false
	return nil
}

func formatEmployeeCode(n int64) string {
	code := "EMP"
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	for len(digits) < 4 {
		digits = append([]byte{'0'}, digits...)
	}
	return code + string(digits)
}

// --- CameraReader / CameraWriter ---

func (s *Store) GetCamera(ctx context.Context, id int64) (*database.Camera, error) {
	if s.CameraError != nil {
		return nil, s.CameraError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cameras[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *Store) ResolveCamera(ctx context.Context, ip string) (*database.Camera, error) {
	if s.CameraError != nil {
		return nil, s.CameraError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var first *database.Camera
	ids := make([]int64, 0, len(s.cameras))
	for id := range s.cameras {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		c := s.cameras[id]
		if !c.Active {
			continue
		}
		if ip != "" && c.IPAddress == ip {
			cp := *c
			return &cp, nil
		}
		if first == nil {
			first = c
		}
	}
	if first == nil {
		return nil, database.ErrNotFound
	}
	cp := *first
	return &cp, nil
}

func (s *Store) ListCameras(ctx context.Context, activeOnly bool) ([]database.Camera, error) {
	if s.CameraError != nil {
		return nil, s.CameraError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []database.Camera
	for _, c := range s.cameras {
		if activeOnly && !c.Active {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CountActiveCameras(ctx context.Context) (int, error) {
	if s.CameraError != nil {
		return 0, s.CameraError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, c := range s.cameras {
		if c.Active {
			count++
		}
	}
	return count, nil
}

func (s *Store) CreateCamera(ctx context.Context, c *database.Camera) error {
	if s.CameraError != nil {
		return s.CameraError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.nextIDLocked()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	s.cameras[c.ID] = &cp
	return nil
}

func (s *Store) UpdateCamera(ctx context.Context, c *database.Camera) error {
	if s.CameraError != nil {
		return s.CameraError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cameras[c.ID]; !ok {
		return database.ErrNotFound
	}
	cp := *c
	cp.UpdatedAt = time.Now()
	s.cameras[c.ID] = &cp
	return nil
}

// --- RegionStore ---

func (s *Store) GetRegion(ctx context.Context, id int64) (*database.Region, error) {
	if s.RegionError != nil {
		return nil, s.RegionError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.regions[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *Store) ListRegions(ctx context.Context, activeOnly bool) ([]database.Region, error) {
	if s.RegionError != nil {
		return nil, s.RegionError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []database.Region
	for _, r := range s.regions {
		if activeOnly && !r.Active {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreateRegion(ctx context.Context, r *database.Region) error {
	if s.RegionError != nil {
		return s.RegionError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.nextIDLocked()
	r.CreatedAt = time.Now()
	r.UpdatedAt = r.CreatedAt
	cp := *r
	s.regions[r.ID] = &cp
	return nil
}

func (s *Store) UpdateRegion(ctx context.Context, r *database.Region) error {
	if s.RegionError != nil {
		return s.RegionError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.regions[r.ID]
	if !ok {
		return database.ErrNotFound
	}
	existing.Name = r.Name
	existing.Label = r.Label
	existing.Active = r.Active
	existing.UpdatedAt = time.Now()
	return nil
}

// RecountRegion recounts the region counters from the in-memory rows.
func (s *Store) RecountRegion(ctx context.Context, regionID int64, day time.Time) error {
	if s.RegionError != nil {
		return s.RegionError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.regions[regionID]
	if !ok {
		return database.ErrNotFound
	}
	s.RecountCalls = append(s.RecountCalls, regionID)

	dayKey := day.UTC().Format("2006-01-02")
	employees, arrivals, absentees := 0, 0, 0
	for _, e := range s.employees {
		if e.Active && e.RegionID != nil && *e.RegionID == regionID {
			employees++
		}
	}
	for _, a := range s.attendance {
		if a.RegionID == nil || *a.RegionID != regionID {
			continue
		}
		if a.Date.UTC().Format("2006-01-02") != dayKey {
			continue
		}
		switch a.Status {
		case database.StatusCame:
			arrivals++
		case database.StatusAbsent:
			absentees++
		}
	}
	r.EmployeesCount = employees
	r.ArrivalsCount = arrivals
	r.AbsenteesCount = absentees
	r.UpdatedAt = time.Now()
	return nil
}

// --- AttendanceStore ---

func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func (s *Store) findDayLocked(employeeID int64, day time.Time) *database.AttendanceRecord {
	key := dayKey(day)
	for _, a := range s.attendance {
		if a.EmployeeID == employeeID && dayKey(a.Date) == key {
			return a
		}
	}
	return nil
}

func (s *Store) StartDay(ctx context.Context, rec *database.AttendanceRecord) (bool, error) {
	if s.AttendanceError != nil {
		return false, s.AttendanceError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing := s.findDayLocked(rec.EmployeeID, rec.Date); existing != nil {
		return false, nil
	}
	rec.ID = s.nextIDLocked()
	rec.RecordedAt = time.Now()
	cp := *rec
	s.attendance[rec.ID] = &cp
	return true, nil
}

func (s *Store) CloseDay(ctx context.Context, employeeID int64, day time.Time, at time.Time, faceImage, thumbImage string, similarity float64) (*database.AttendanceRecord, error) {
	if s.AttendanceError != nil {
		return nil, s.AttendanceError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.findDayLocked(employeeID, day)
	if rec == nil {
		return nil, database.ErrNotFound
	}
	t := at
	rec.CheckOut = &t
	rec.FaceImage = faceImage
	rec.ThumbImage = thumbImage
	rec.Similarity = similarity
	cp := *rec
	return &cp, nil
}

func (s *Store) GetDay(ctx context.Context, employeeID int64, day time.Time) (*database.AttendanceRecord, error) {
	if s.AttendanceError != nil {
		return nil, s.AttendanceError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec := s.findDayLocked(employeeID, day)
	if rec == nil {
		return nil, database.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *Store) ListAttendance(ctx context.Context, opts database.AttendanceListOptions) ([]database.AttendanceDetail, error) {
	if s.AttendanceError != nil {
		return nil, s.AttendanceError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []database.AttendanceDetail
	for _, a := range s.attendance {
		if opts.Day != nil && dayKey(a.Date) != dayKey(*opts.Day) {
			continue
		}
		if opts.RegionID != 0 && (a.RegionID == nil || *a.RegionID != opts.RegionID) {
			continue
		}
		d := database.AttendanceDetail{AttendanceRecord: *a}
		if e, ok := s.employees[a.EmployeeID]; ok {
			d.EmployeeCode = e.Code
			d.EmployeeName = e.FullName()
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt.After(out[j].RecordedAt) })
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (s *Store) CountAttendance(ctx context.Context, regionID int64, day time.Time, status string) (int, error) {
	if s.AttendanceError != nil {
		return 0, s.AttendanceError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, a := range s.attendance {
		if dayKey(a.Date) != dayKey(day) {
			continue
		}
		if regionID != 0 && (a.RegionID == nil || *a.RegionID != regionID) {
			continue
		}
		if status != "" && a.Status != status {
			continue
		}
		count++
	}
	return count, nil
}

// --- QuarantineStore ---

func (s *Store) InsertUnknownFace(ctx context.Context, u *database.UnknownFace) error {
	if s.QuarantineError != nil {
		return s.QuarantineError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u.ID = s.nextIDLocked()
	u.RecordedAt = time.Now()
	cp := *u
	s.unknownFaces[u.ID] = &cp
	return nil
}

func (s *Store) GetUnknownFace(ctx context.Context, id int64) (*database.UnknownFace, error) {
	if s.QuarantineError != nil {
		return nil, s.QuarantineError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.unknownFaces[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) ListUnknownFaces(ctx context.Context, processed *bool, limit int) ([]database.UnknownFace, error) {
	if s.QuarantineError != nil {
		return nil, s.QuarantineError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []database.UnknownFace
	for _, u := range s.unknownFaces {
		if processed != nil && u.Processed != *processed {
			continue
		}
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) PromoteUnknownFace(ctx context.Context, detectionID, employeeID int64) (*database.ReferenceImage, error) {
	if s.QuarantineError != nil {
		return nil, s.QuarantineError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.unknownFaces[detectionID]
	if !ok {
		return nil, database.ErrNotFound
	}
	if u.Processed {
		return nil, database.ErrConflict
	}
	u.Processed = true
	u.LinkedEmployeeID = &employeeID

	isPrimary := true
	for _, img := range s.referenceImages {
		if img.EmployeeID == employeeID && img.IsPrimary {
			isPrimary = false
			break
		}
	}
	img := database.ReferenceImage{
		ID:           s.nextIDLocked(),
		EmployeeID:   employeeID,
		Path:         u.FaceImage,
		FaceEncoding: u.FaceEncoding,
		IsPrimary:    isPrimary,
		UploadedAt:   time.Now(),
	}
	camID := u.CameraID
	img.CameraID = &camID
	cp := img
	s.referenceImages[img.ID] = &cp
	return &img, nil
}

// --- ReferenceImageStore ---

func (s *Store) CreateReferenceImage(ctx context.Context, img *database.ReferenceImage) error {
	if s.ReferenceError != nil {
		return s.ReferenceError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if img.IsPrimary {
		for _, existing := range s.referenceImages {
			if existing.EmployeeID == img.EmployeeID {
				existing.IsPrimary = false
			}
		}
	}
	img.ID = s.nextIDLocked()
	img.UploadedAt = time.Now()
	cp := *img
	s.referenceImages[img.ID] = &cp
	return nil
}

func (s *Store) ListReferenceImages(ctx context.Context, employeeID int64) ([]database.ReferenceImage, error) {
	if s.ReferenceError != nil {
		return nil, s.ReferenceError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []database.ReferenceImage
	for _, img := range s.referenceImages {
		if img.EmployeeID == employeeID {
			out = append(out, *img)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) ListEncodedReferenceImages(ctx context.Context) ([]database.ReferenceImage, error) {
	if s.ReferenceError != nil {
		return nil, s.ReferenceError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []database.ReferenceImage
	for _, img := range s.referenceImages {
		if len(img.FaceEncoding) > 0 {
			out = append(out, *img)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- CaptureStore ---

func (s *Store) AppendCapture(ctx context.Context, c *database.CaptureStat) error {
	if s.CaptureError != nil {
		return s.CaptureError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.nextIDLocked()
	s.captures = append(s.captures, *c)
	return nil
}

func (s *Store) detailLocked(c database.CaptureStat) database.CaptureDetail {
	d := database.CaptureDetail{CaptureStat: c}
	if e, ok := s.employees[c.EmployeeID]; ok {
		d.EmployeeCode = e.Code
		d.EmployeeName = e.FullName()
		d.Position = e.Position
		if e.RegionID != nil {
			if r, ok := s.regions[*e.RegionID]; ok {
				d.RegionLabel = r.Label
			}
		}
	}
	if cam, ok := s.cameras[c.CameraID]; ok {
		d.CameraIP = cam.IPAddress
	}
	return d
}

func (s *Store) ListCaptures(ctx context.Context, day *time.Time, limit int) ([]database.CaptureDetail, error) {
	if s.CaptureError != nil {
		return nil, s.CaptureError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []database.CaptureDetail
	for _, c := range s.captures {
		if day != nil && dayKey(c.CapturedAt) != dayKey(*day) {
			continue
		}
		out = append(out, s.detailLocked(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CapturedAt.After(out[j].CapturedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) ListCapturesByEmployeeCode(ctx context.Context, code string, limit int) ([]database.CaptureDetail, error) {
	if s.CaptureError != nil {
		return nil, s.CaptureError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []database.CaptureDetail
	for _, c := range s.captures {
		d := s.detailLocked(c)
		if d.EmployeeCode != code {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CapturedAt.After(out[j].CapturedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CaptureCount returns the number of journal rows, for test assertions.
func (s *Store) CaptureCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.captures)
}

// UnknownFaceCount returns the number of quarantine rows, for test assertions.
func (s *Store) UnknownFaceCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.unknownFaces)
}

// ReferenceImageCount returns the number of reference images, for test assertions.
func (s *Store) ReferenceImageCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.referenceImages)
}
