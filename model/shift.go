package model

import "time"

// Shift times are wall-clock strings ("08:00:00") in the company timezone.
type Shift struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string `gorm:"size:100;not null" json:"name"`
	StartTime    string `gorm:"column:start_time;type:time;not null" json:"start_time"`
	EndTime      string `gorm:"column:end_time;type:time;not null" json:"end_time"`
	GraceMinutes int32  `gorm:"column:grace_minutes;not null;default:0" json:"grace_minutes"`

	CreatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;<-:create"`
	UpdatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP on update CURRENT_TIMESTAMP"`
}

func (Shift) TableName() string {
	return "shifts"
}

// UserShift assigns a user to a shift at an office on one day of the week
// (0 = Sunday, matching time.Weekday). One assignment per user/day/office.
type UserShift struct {
	ID        uint  `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint  `gorm:"not null;uniqueIndex:idx_user_day_office" json:"user_id"`
	DayOfWeek int32 `gorm:"not null;uniqueIndex:idx_user_day_office" json:"day_of_week"`
	OfficeID  uint  `gorm:"not null;uniqueIndex:idx_user_day_office" json:"office_id"`
	ShiftID   uint  `gorm:"not null" json:"shift_id"`

	Shift  Shift  `gorm:"foreignKey:ShiftID;references:ID" json:"shift"`
	Office Office `gorm:"foreignKey:OfficeID;references:ID" json:"office"`

	CreatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;<-:create"`
}

func (UserShift) TableName() string {
	return "user_shifts"
}
