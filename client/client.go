// Package client is the typed HTTP client for the attendance API, shared by
// the device app and the token-rotation job.
package client

import (
	"context"

	"hadirku.id/hadirku/attendance"
)

type Client struct {
	Transport  *Transport
	Attendance *AttendanceEndpoint
}

// NewClient initializes the API client
func NewClient(baseURL string, token string) *Client {
	t := NewTransport(baseURL, token)
	return &Client{
		Transport:  t,
		Attendance: &AttendanceEndpoint{transport: t},
	}
}

// Verify submits one scan. Satisfies the device coordinator's Verifier
// contract.
func (c *Client) Verify(ctx context.Context, qrCode string, loc attendance.Coordinate) (*attendance.Record, error) {
	return c.Attendance.Scan(ctx, qrCode, loc)
}
