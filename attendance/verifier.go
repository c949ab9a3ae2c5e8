package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusOnTime Status = "on-time"
	StatusLate   Status = "late"
)

// Office is the geofence target. Referenced, never mutated, by the core.
type Office struct {
	ID           uint
	Name         string
	Coordinate   Coordinate
	RadiusMeters float64
}

// Record is one attendance fact. Exactly one exists per (user, date, type);
// the storage layer enforces that with a unique index.
type Record struct {
	ID        string         `json:"id"`
	UserID    uint           `json:"user_id"`
	Date      string         `json:"date"`
	Type      AttendanceType `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	OfficeID  uint           `json:"office_id"`
	Status    Status         `json:"status"`
	Location  Coordinate     `json:"location"`
}

// OfficeDirectory is the admin/office collaborator. Must never hand back a
// geofence radius <= 0.
type OfficeDirectory interface {
	Office(ctx context.Context, id uint) (*Office, error)
}

// ErrDuplicateRecord is returned by RecordRepo.Create when the unique index
// on (user, date, type) already holds a row.
var ErrDuplicateRecord = errors.New("attendance record already exists")

// RecordRepo is the attendance-record collaborator. Create must enforce the
// uniqueness invariant atomically.
type RecordRepo interface {
	Exists(ctx context.Context, userID uint, date string, typ AttendanceType) (bool, error)
	Create(ctx context.Context, rec *Record) error
}

// VerifierConfig carries the policy knobs that must not hide in code paths.
type VerifierConfig struct {
	// OpenAttendance records scans from users without a scheduled shift as
	// ad-hoc on-time attendance instead of rejecting them. Default off.
	OpenAttendance bool
	// Location is the timezone attendance dates and shift times are read in.
	Location *time.Location
}

// ScanInput is one verification attempt. ExpectType and ExpectOfficeID are
// optional cross-checks against what the resolved token says; zero values
// mean "trust the token".
type ScanInput struct {
	TokenValue     string
	UserID         uint
	Location       Coordinate
	ExpectType     AttendanceType
	ExpectOfficeID uint
}

// ScanVerifier validates a scanned token against freshness, geofence,
// duplicates and schedule, then commits the attendance record. The pipeline
// short-circuits on the first failure and every failure is a typed Rejection.
type ScanVerifier struct {
	tokens   *TokenStore
	offices  OfficeDirectory
	schedule *ScheduleResolver
	records  RecordRepo
	now      func() time.Time
	open     bool
	loc      *time.Location
}

func NewScanVerifier(tokens *TokenStore, offices OfficeDirectory, schedule *ScheduleResolver, records RecordRepo, cfg VerifierConfig) *ScanVerifier {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &ScanVerifier{
		tokens:   tokens,
		offices:  offices,
		schedule: schedule,
		records:  records,
		now:      time.Now,
		open:     cfg.OpenAttendance,
		loc:      loc,
	}
}

// WithClock overrides the verifier's clock. Test hook.
func (v *ScanVerifier) WithClock(now func() time.Time) *ScanVerifier {
	v.now = now
	return v
}

// Verify runs the whole pipeline for one scan. On success the created record
// is returned; on failure the error is always a *Rejection.
func (v *ScanVerifier) Verify(ctx context.Context, in ScanInput) (*Record, error) {
	// 1. Token freshness. Never issued, expired or rotated away all look
	// the same from outside.
	token, ok := v.tokens.Resolve(in.TokenValue)
	if !ok {
		return nil, reject(RejectTokenInvalid, "QR code is invalid or has expired, ask for a fresh one")
	}

	// 2. The token must agree with what the caller expects.
	if in.ExpectType != "" && in.ExpectType != token.Type {
		return nil, reject(RejectTokenMismatch, "this QR code is for %s, not %s", token.Type, in.ExpectType)
	}
	if in.ExpectOfficeID != 0 && in.ExpectOfficeID != token.OfficeID {
		return nil, reject(RejectTokenMismatch, "this QR code belongs to another office")
	}

	office, err := v.offices.Office(ctx, token.OfficeID)
	if err != nil {
		return nil, rejectStorage(fmt.Errorf("office lookup: %w", err))
	}
	if office == nil {
		return nil, reject(RejectTokenInvalid, "QR code refers to an unknown office")
	}

	// 3. Geofence. Distance exactly at the radius is accepted.
	distance := DistanceMeters(in.Location, office.Coordinate)
	if distance > office.RadiusMeters {
		return nil, rejectOutOfRange(distance, office.RadiusMeters)
	}

	scannedAt := v.now().In(v.loc)
	date := scannedAt.Format("2006-01-02")

	// 4. Duplicate pre-check. Advisory only; the unique index at commit is
	// what makes concurrent duplicates impossible.
	exists, err := v.records.Exists(ctx, in.UserID, date, token.Type)
	if err != nil {
		return nil, rejectStorage(fmt.Errorf("duplicate check: %w", err))
	}
	if exists {
		return nil, reject(RejectDuplicateAttendance, "attendance %s already recorded for today", token.Type)
	}

	// 5 + 6. Schedule and status classification.
	assignment, err := v.schedule.Resolve(ctx, in.UserID, scannedAt)
	if err != nil {
		return nil, rejectStorage(fmt.Errorf("schedule lookup: %w", err))
	}
	status := StatusOnTime
	switch {
	case assignment != nil:
		status, err = classify(token.Type, assignment.Shift, scannedAt)
		if err != nil {
			return nil, rejectStorage(fmt.Errorf("shift definition: %w", err))
		}
	case !v.open:
		return nil, reject(RejectNoScheduledShift, "no shift is scheduled for you today")
	}

	// 7. Commit. The loser of a concurrent race surfaces as a duplicate.
	rec := &Record{
		ID:        uuid.NewString(),
		UserID:    in.UserID,
		Date:      date,
		Type:      token.Type,
		Timestamp: scannedAt,
		OfficeID:  token.OfficeID,
		Status:    status,
		Location:  in.Location,
	}
	if err := v.records.Create(ctx, rec); err != nil {
		if errors.Is(err, ErrDuplicateRecord) {
			return nil, reject(RejectDuplicateAttendance, "attendance %s already recorded for today", token.Type)
		}
		return nil, rejectStorage(fmt.Errorf("create record: %w", err))
	}
	return rec, nil
}

// classify compares the scan time against the shift boundary for the
// attendance type. Check-in is on time up to start + grace; check-out is on
// time up to the scheduled end. Early checkout is deliberately on-time:
// lateness detection applies to the start and end boundaries only.
func classify(typ AttendanceType, shift Shift, scannedAt time.Time) (Status, error) {
	base := time.Date(scannedAt.Year(), scannedAt.Month(), scannedAt.Day(), 0, 0, 0, 0, scannedAt.Location())

	start, err := ParseTimeOnDate(base, shift.Start)
	if err != nil {
		return "", fmt.Errorf("invalid shift start %q: %w", shift.Start, err)
	}
	end, err := ParseTimeOnDate(base, shift.End)
	if err != nil {
		return "", fmt.Errorf("invalid shift end %q: %w", shift.End, err)
	}
	// Night shifts: an end before the start belongs to the next day.
	if end.Before(start) {
		end = end.Add(24 * time.Hour)
	}

	var deadline time.Time
	switch typ {
	case TypeCheckIn:
		deadline = start.Add(shift.Grace)
	case TypeCheckOut:
		deadline = end
	default:
		return "", fmt.Errorf("unknown attendance type: %q", typ)
	}

	if scannedAt.After(deadline) {
		return StatusLate, nil
	}
	return StatusOnTime, nil
}
