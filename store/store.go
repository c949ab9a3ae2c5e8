// Package store backs the attendance collaborator interfaces with MySQL.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"hadirku.id/hadirku/attendance"
	"hadirku.id/hadirku/core"
	"hadirku.id/hadirku/model"
)

type Store struct {
	dm *core.DatabaseManager
}

func New(dm *core.DatabaseManager) *Store {
	return &Store{dm: dm}
}

// Office implements attendance.OfficeDirectory. Unknown ids come back nil.
func (s *Store) Office(ctx context.Context, id uint) (*attendance.Office, error) {
	var row model.Office
	err := s.dm.DB(ctx).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if row.RadiusMeters <= 0 {
		return nil, fmt.Errorf("office %d has a non-positive geofence radius", id)
	}
	return &attendance.Office{
		ID:           row.ID,
		Name:         row.Name,
		Coordinate:   attendance.Coordinate{Latitude: row.Latitude, Longitude: row.Longitude},
		RadiusMeters: row.RadiusMeters,
	}, nil
}

// AssignmentFor implements attendance.AssignmentDirectory. Nil when the user
// has no shift that day.
func (s *Store) AssignmentFor(ctx context.Context, userID uint, day time.Weekday) (*attendance.ShiftAssignment, error) {
	var row model.UserShift
	err := s.dm.DB(ctx).
		Preload("Shift").
		Where("user_id = ? AND day_of_week = ?", userID, int32(day)).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &attendance.ShiftAssignment{
		UserID:    row.UserID,
		DayOfWeek: time.Weekday(row.DayOfWeek),
		ShiftID:   row.ShiftID,
		OfficeID:  row.OfficeID,
		Shift: attendance.Shift{
			ID:    row.Shift.ID,
			Name:  row.Shift.Name,
			Start: row.Shift.StartTime,
			End:   row.Shift.EndTime,
			Grace: time.Duration(row.Shift.GraceMinutes) * time.Minute,
		},
	}, nil
}

// Exists implements the advisory duplicate pre-check.
func (s *Store) Exists(ctx context.Context, userID uint, date string, typ attendance.AttendanceType) (bool, error) {
	var count int64
	err := s.dm.DB(ctx).Model(&model.AttendanceRecord{}).
		Where("user_id = ? AND date = ? AND type = ?", userID, date, string(typ)).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create implements attendance.RecordRepo. The unique index on
// (user_id, date, type) makes this the authoritative duplicate gate; a
// violated index is reported as attendance.ErrDuplicateRecord.
func (s *Store) Create(ctx context.Context, rec *attendance.Record) error {
	row := toRow(rec)
	err := s.dm.DB(ctx).Create(&row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return attendance.ErrDuplicateRecord
	}
	return err
}

// RecordsForUserOn lists a user's records for one date, oldest first.
func (s *Store) RecordsForUserOn(ctx context.Context, userID uint, date string) ([]attendance.Record, error) {
	var rows []model.AttendanceRecord
	err := s.dm.DB(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		Order("timestamp").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	records := make([]attendance.Record, 0, len(rows))
	for i := range rows {
		records = append(records, toDomain(&rows[i]))
	}
	return records, nil
}

// RecordsForMonth lists every record for an office in a calendar month,
// ordered for report rendering. officeID 0 means all offices.
func (s *Store) RecordsForMonth(ctx context.Context, officeID uint, year int, month time.Month) ([]attendance.Record, error) {
	first := fmt.Sprintf("%04d-%02d-01", year, month)
	next := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0).Format("2006-01-02")

	q := s.dm.DB(ctx).
		Where("date >= ? AND date < ?", first, next).
		Order("user_id, date, type")
	if officeID != 0 {
		q = q.Where("office_id = ?", officeID)
	}

	var rows []model.AttendanceRecord
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	records := make([]attendance.Record, 0, len(rows))
	for i := range rows {
		records = append(records, toDomain(&rows[i]))
	}
	return records, nil
}

// SearchParams narrows an attendance search. Dates are inclusive
// "2006-01-02" bounds; zero OfficeID and empty UserIDs mean "any".
type SearchParams struct {
	StartDate string
	EndDate   string
	OfficeID  uint
	UserIDs   []uint
	Limit     int
	Offset    int
}

// SearchRecords pages through attendance records for the admin table.
func (s *Store) SearchRecords(ctx context.Context, p SearchParams) ([]attendance.Record, int64, error) {
	q := s.dm.DB(ctx).Model(&model.AttendanceRecord{}).
		Where("date >= ? AND date <= ?", p.StartDate, p.EndDate)
	if p.OfficeID != 0 {
		q = q.Where("office_id = ?", p.OfficeID)
	}
	if len(p.UserIDs) > 0 {
		q = q.Where("user_id IN ?", p.UserIDs)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := p.Limit
	if limit <= 0 {
		limit = 1000
	}

	var rows []model.AttendanceRecord
	err := q.Order("timestamp DESC").Limit(limit).Offset(p.Offset).Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	records := make([]attendance.Record, 0, len(rows))
	for i := range rows {
		records = append(records, toDomain(&rows[i]))
	}
	return records, total, nil
}

// Offices lists every office, for the rotation loop and reports.
func (s *Store) Offices(ctx context.Context) ([]attendance.Office, error) {
	var rows []model.Office
	if err := s.dm.DB(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	offices := make([]attendance.Office, 0, len(rows))
	for _, row := range rows {
		offices = append(offices, attendance.Office{
			ID:           row.ID,
			Name:         row.Name,
			Coordinate:   attendance.Coordinate{Latitude: row.Latitude, Longitude: row.Longitude},
			RadiusMeters: row.RadiusMeters,
		})
	}
	return offices, nil
}

func toRow(rec *attendance.Record) model.AttendanceRecord {
	return model.AttendanceRecord{
		ID:        rec.ID,
		UserID:    rec.UserID,
		Date:      rec.Date,
		Type:      string(rec.Type),
		Timestamp: rec.Timestamp,
		OfficeID:  rec.OfficeID,
		Status:    string(rec.Status),
		Latitude:  rec.Location.Latitude,
		Longitude: rec.Location.Longitude,
	}
}

func toDomain(row *model.AttendanceRecord) attendance.Record {
	return attendance.Record{
		ID:        row.ID,
		UserID:    row.UserID,
		Date:      row.Date,
		Type:      attendance.AttendanceType(row.Type),
		Timestamp: row.Timestamp,
		OfficeID:  row.OfficeID,
		Status:    attendance.Status(row.Status),
		Location:  attendance.Coordinate{Latitude: row.Latitude, Longitude: row.Longitude},
	}
}
