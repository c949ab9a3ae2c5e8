package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"hadirku.id/hadirku/attendance"
)

type AttendanceEndpoint struct {
	transport *Transport
}

// The server wraps payloads in a {"data": ...} envelope.
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

const wireTimeLayout = "2006-01-02T15:04:05"

type wireRecord struct {
	ID        string  `json:"id"`
	UserID    uint    `json:"user_id"`
	Date      string  `json:"date"`
	Type      string  `json:"type"`
	Timestamp string  `json:"timestamp"`
	OfficeID  uint    `json:"office_id"`
	Status    string  `json:"status"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// QRToken is the issued token as the display needs it.
type QRToken struct {
	Token           string `json:"token"`
	Type            string `json:"type"`
	OfficeID        uint   `json:"office_id"`
	ExpiresAt       string `json:"expires_at"`
	ValidForSeconds int    `json:"valid_for_seconds"`
}

// Scan submits a decoded QR value plus the device position. Verdict
// rejections come back as *attendance.Rejection errors, with their kind and
// geofence detail intact.
func (e *AttendanceEndpoint) Scan(ctx context.Context, qrCode string, loc attendance.Coordinate) (*attendance.Record, error) {
	payload := map[string]any{
		"qr_code":   qrCode,
		"latitude":  loc.Latitude,
		"longitude": loc.Longitude,
	}
	res, err := e.transport.Post(ctx, "/api/scan-qr", payload, nil)
	if err != nil {
		return nil, err
	}

	if res.StatusCode >= http.StatusMultipleChoices {
		var rejection attendance.Rejection
		if jsonErr := json.Unmarshal(res.Data, &rejection); jsonErr == nil && rejection.Kind != "" {
			return nil, &rejection
		}
		return nil, decodeAPIError(res)
	}

	var env envelope
	if err := json.Unmarshal(res.Data, &env); err != nil {
		return nil, fmt.Errorf("decode scan response: %w", err)
	}
	var wire wireRecord
	if err := json.Unmarshal(env.Data, &wire); err != nil {
		return nil, fmt.Errorf("decode scan record: %w", err)
	}

	ts, err := time.Parse(wireTimeLayout, wire.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("decode scan timestamp: %w", err)
	}
	return &attendance.Record{
		ID:        wire.ID,
		UserID:    wire.UserID,
		Date:      wire.Date,
		Type:      attendance.AttendanceType(wire.Type),
		Timestamp: ts,
		OfficeID:  wire.OfficeID,
		Status:    attendance.Status(wire.Status),
		Location:  attendance.Coordinate{Latitude: wire.Latitude, Longitude: wire.Longitude},
	}, nil
}

// GenerateQR rotates the live token for an office and type.
func (e *AttendanceEndpoint) GenerateQR(ctx context.Context, officeID uint, typ attendance.AttendanceType) (*QRToken, error) {
	payload := map[string]any{
		"type":      string(typ),
		"office_id": officeID,
	}
	res, err := e.transport.Post(ctx, "/api/generate-qr", payload, nil)
	if err != nil {
		return nil, err
	}
	if res.StatusCode >= http.StatusMultipleChoices {
		return nil, decodeAPIError(res)
	}

	var env envelope
	if err := json.Unmarshal(res.Data, &env); err != nil {
		return nil, fmt.Errorf("decode generate response: %w", err)
	}
	var token QRToken
	if err := json.Unmarshal(env.Data, &token); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return &token, nil
}

// Office mirrors the office listing payload.
type Office struct {
	ID           uint    `json:"id"`
	Name         string  `json:"name"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	RadiusMeters float64 `json:"radius_m"`
}

// Offices lists all offices; the rotation job iterates these.
func (e *AttendanceEndpoint) Offices(ctx context.Context) ([]Office, error) {
	res, err := e.transport.Get(ctx, "/api/offices", nil)
	if err != nil {
		return nil, err
	}
	if res.StatusCode >= http.StatusMultipleChoices {
		return nil, decodeAPIError(res)
	}

	var env envelope
	if err := json.Unmarshal(res.Data, &env); err != nil {
		return nil, fmt.Errorf("decode offices response: %w", err)
	}
	var offices []Office
	if err := json.Unmarshal(env.Data, &offices); err != nil {
		return nil, fmt.Errorf("decode offices: %w", err)
	}
	return offices, nil
}

func decodeAPIError(res *Response) error {
	var env envelope
	if err := json.Unmarshal(res.Data, &env); err == nil && env.Message != "" {
		return fmt.Errorf("api error (%d): %s", res.StatusCode, env.Message)
	}
	return fmt.Errorf("api error: status %d", res.StatusCode)
}
