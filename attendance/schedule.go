package attendance

import (
	"context"
	"time"
)

// Shift defines the scheduled working window. Start and End are wall-clock
// strings like "08:00"; Grace is the tolerance after Start during which a
// check-in still counts as on time.
type Shift struct {
	ID    uint
	Name  string
	Start string
	End   string
	Grace time.Duration
}

// ShiftAssignment binds a user to a shift at an office on a day of week.
// At most one assignment exists per (user, day, office); produced by admin
// workflows, read-only here.
type ShiftAssignment struct {
	UserID    uint
	DayOfWeek time.Weekday
	ShiftID   uint
	OfficeID  uint
	Shift     Shift
}

// AssignmentDirectory is the shift-assignment collaborator. A nil assignment
// with a nil error means the user is not scheduled that day.
type AssignmentDirectory interface {
	AssignmentFor(ctx context.Context, userID uint, day time.Weekday) (*ShiftAssignment, error)
}

// ScheduleResolver derives the day of week from a date in the office timezone
// and delegates to the assignment directory.
type ScheduleResolver struct {
	assignments AssignmentDirectory
	loc         *time.Location
}

func NewScheduleResolver(assignments AssignmentDirectory, loc *time.Location) *ScheduleResolver {
	if loc == nil {
		loc = time.UTC
	}
	return &ScheduleResolver{assignments: assignments, loc: loc}
}

// Resolve returns the user's assignment for the date, or nil when the user
// has no scheduled shift that day.
func (r *ScheduleResolver) Resolve(ctx context.Context, userID uint, date time.Time) (*ShiftAssignment, error) {
	return r.assignments.AssignmentFor(ctx, userID, date.In(r.loc).Weekday())
}

// ParseTimeOnDate combines a base date with a wall-clock string ("08:00" or
// "08:00:00") in the base date's location.
func ParseTimeOnDate(baseDate time.Time, timeStr string) (time.Time, error) {
	t, err := time.Parse("15:04", timeStr)
	if err != nil {
		t, err = time.Parse("15:04:05", timeStr)
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(baseDate.Year(), baseDate.Month(), baseDate.Day(),
		t.Hour(), t.Minute(), t.Second(), 0, baseDate.Location()), nil
}
