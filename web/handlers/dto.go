package handlers

import (
	"context"
	"time"

	"hadirku.id/hadirku/attendance"
	"hadirku.id/hadirku/store"
	"hadirku.id/hadirku/web/common"
)

// Verifier is the scan pipeline contract the handlers call into.
type Verifier interface {
	Verify(ctx context.Context, in attendance.ScanInput) (*attendance.Record, error)
}

// TokenIssuer is the QR issuance contract.
type TokenIssuer interface {
	Issue(officeID uint, typ attendance.AttendanceType) attendance.Token
	Live(officeID uint, typ attendance.AttendanceType) (attendance.Token, bool)
	TTL() time.Duration
}

// RecordStore is the read side the handlers need.
type RecordStore interface {
	Office(ctx context.Context, id uint) (*attendance.Office, error)
	Offices(ctx context.Context) ([]attendance.Office, error)
	RecordsForUserOn(ctx context.Context, userID uint, date string) ([]attendance.Record, error)
	RecordsForMonth(ctx context.Context, officeID uint, year int, month time.Month) ([]attendance.Record, error)
	SearchRecords(ctx context.Context, p store.SearchParams) ([]attendance.Record, int64, error)
}

type GenerateQRRequest struct {
	Type     string `json:"type" binding:"required,oneof=check-in check-out"`
	OfficeID uint   `json:"office_id" binding:"required"`
}

type GenerateQRResponse struct {
	Token           string               `json:"token"`
	Type            string               `json:"type"`
	OfficeID        uint                 `json:"office_id"`
	ExpiresAt       common.LocalDateTime `json:"expires_at"`
	ValidForSeconds int                  `json:"valid_for_seconds"`
}

type ScanQRRequest struct {
	QRCode    string   `json:"qr_code" binding:"required"`
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

type RecordResponse struct {
	ID        string               `json:"id"`
	UserID    uint                 `json:"user_id"`
	Date      string               `json:"date"`
	Type      string               `json:"type"`
	Timestamp common.LocalDateTime `json:"timestamp"`
	OfficeID  uint                 `json:"office_id"`
	Status    string               `json:"status"`
	Latitude  float64              `json:"latitude"`
	Longitude float64              `json:"longitude"`
}

func newRecordResponse(rec *attendance.Record) RecordResponse {
	return RecordResponse{
		ID:        rec.ID,
		UserID:    rec.UserID,
		Date:      rec.Date,
		Type:      string(rec.Type),
		Timestamp: common.LocalDateTime{Time: rec.Timestamp},
		OfficeID:  rec.OfficeID,
		Status:    string(rec.Status),
		Latitude:  rec.Location.Latitude,
		Longitude: rec.Location.Longitude,
	}
}

type OfficeResponse struct {
	ID           uint    `json:"id"`
	Name         string  `json:"name"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	RadiusMeters float64 `json:"radius_m"`
}

type SearchRequest struct {
	StartDate *common.DateOnly `json:"startDate" binding:"required"`
	EndDate   *common.DateOnly `json:"endDate" binding:"required"`
	OfficeID  uint             `json:"officeId"`
	UserIDs   []uint           `json:"userIds"`
}
