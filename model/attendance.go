package model

import "time"

// AttendanceRecord is one committed attendance fact. The unique index on
// (user_id, date, type) is the authority on duplicates: two concurrent scans
// for the same key cannot both insert.
type AttendanceRecord struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_date_type" json:"user_id"`
	Date      string    `gorm:"type:date;not null;uniqueIndex:idx_user_date_type" json:"date"`
	Type      string    `gorm:"size:20;not null;uniqueIndex:idx_user_date_type" json:"type"`
	Timestamp time.Time `gorm:"not null" json:"timestamp"`
	OfficeID  uint      `gorm:"not null" json:"office_id"`
	Status    string    `gorm:"size:20;not null" json:"status"`
	Latitude  float64   `gorm:"type:decimal(10,7);not null" json:"latitude"`
	Longitude float64   `gorm:"type:decimal(10,7);not null" json:"longitude"`

	CreatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;<-:create"`
}

func (AttendanceRecord) TableName() string {
	return "attendance_records"
}
