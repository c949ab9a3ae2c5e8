package model

import "time"

type Office struct {
	ID           uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string  `gorm:"size:100;not null" json:"name"`
	Address      string  `json:"address"`
	Latitude     float64 `gorm:"type:decimal(10,7);not null" json:"latitude"`
	Longitude    float64 `gorm:"type:decimal(10,7);not null" json:"longitude"`
	RadiusMeters float64 `gorm:"column:radius_m;not null" json:"radius_m"`

	CreatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;<-:create"`
	UpdatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP on update CURRENT_TIMESTAMP"`
}

func (Office) TableName() string {
	return "offices"
}
