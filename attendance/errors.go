package attendance

import (
	"errors"
	"fmt"
)

// RejectKind identifies why a scan was refused. Every kind is terminal for
// that attempt and is surfaced verbatim to the caller.
type RejectKind string

const (
	RejectTokenInvalid        RejectKind = "token_invalid"
	RejectTokenMismatch       RejectKind = "token_mismatch"
	RejectOutOfRange          RejectKind = "out_of_range"
	RejectDuplicateAttendance RejectKind = "duplicate_attendance"
	RejectNoScheduledShift    RejectKind = "no_scheduled_shift"
	RejectLocationUnavailable RejectKind = "location_unavailable"
	RejectTransientStorage    RejectKind = "transient_storage_failure"
)

// Rejection is a typed scan verdict. OutOfRange rejections carry the computed
// distance and the allowed radius so the caller can render actionable text.
type Rejection struct {
	Kind           RejectKind `json:"kind"`
	Message        string     `json:"message"`
	DistanceMeters float64    `json:"distance_meters,omitempty"`
	AllowedMeters  float64    `json:"allowed_meters,omitempty"`

	cause error
}

func (r *Rejection) Error() string {
	return r.Message
}

func (r *Rejection) Unwrap() error {
	return r.cause
}

func reject(kind RejectKind, format string, args ...any) *Rejection {
	return &Rejection{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func rejectOutOfRange(distance, allowed float64) *Rejection {
	return &Rejection{
		Kind:           RejectOutOfRange,
		Message:        fmt.Sprintf("you are %.0f m from the office, allowed %.0f m", distance, allowed),
		DistanceMeters: distance,
		AllowedMeters:  allowed,
	}
}

func rejectStorage(err error) *Rejection {
	return &Rejection{
		Kind:    RejectTransientStorage,
		Message: "attendance could not be saved, please retry the scan",
		cause:   err,
	}
}

// AsRejection unwraps err into a *Rejection if it is one.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// IsKind reports whether err is a rejection of the given kind.
func IsKind(err error, kind RejectKind) bool {
	r, ok := AsRejection(err)
	return ok && r.Kind == kind
}
