package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"hadirku.id/hadirku/attendance"
	"hadirku.id/hadirku/store"
	"hadirku.id/hadirku/utils"
	"hadirku.id/hadirku/web/common"
	"hadirku.id/hadirku/web/middlewares"
)

// GenerateQRHandler mints (and rotates) the live token for an office and
// attendance type. Admin only; called by the display's refresh loop.
func GenerateQRHandler(issuer TokenIssuer, records RecordStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req GenerateQRRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, common.NewErrorResponse(common.FormatBindingError(err)))
			return
		}

		office, err := records.Office(c.Request.Context(), req.OfficeID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error()))
			return
		}
		if office == nil {
			c.JSON(http.StatusNotFound, common.NewErrorResponse("office not found"))
			return
		}

		typ, _ := attendance.ParseAttendanceType(req.Type)
		token := issuer.Issue(req.OfficeID, typ)

		c.JSON(http.StatusOK, common.NewSuccessResponse(GenerateQRResponse{
			Token:           token.Value,
			Type:            string(token.Type),
			OfficeID:        token.OfficeID,
			ExpiresAt:       common.LocalDateTime{Time: token.ExpiresAt},
			ValidForSeconds: int(issuer.TTL() / time.Second),
		}))
	}
}

// LiveQRHandler returns the current token for an office and type without
// rotating it, so a display can re-render after a reload.
func LiveQRHandler(issuer TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		typ, err := attendance.ParseAttendanceType(c.Query("type"))
		if err != nil {
			c.JSON(http.StatusBadRequest, common.NewErrorResponse(err.Error()))
			return
		}
		officeID, err := strconv.ParseUint(c.Query("office_id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, common.NewErrorResponse("office_id must be numeric"))
			return
		}

		token, ok := issuer.Live(uint(officeID), typ)
		if !ok {
			c.JSON(http.StatusNotFound, common.NewErrorResponse("no live token, generate one first"))
			return
		}

		c.JSON(http.StatusOK, common.NewSuccessResponse(GenerateQRResponse{
			Token:           token.Value,
			Type:            string(token.Type),
			OfficeID:        token.OfficeID,
			ExpiresAt:       common.LocalDateTime{Time: token.ExpiresAt},
			ValidForSeconds: int(time.Until(token.ExpiresAt) / time.Second),
		}))
	}
}

// ScanQRHandler runs one verification attempt for the authenticated user.
// Verdict rejections keep their type on the wire so the device can render
// the exact reason.
func ScanQRHandler(verifier Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := middlewares.IdentityFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, common.NewErrorResponse("missing identity"))
			return
		}

		var req ScanQRRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, common.NewErrorResponse(common.FormatBindingError(err)))
			return
		}

		rec, err := verifier.Verify(c.Request.Context(), attendance.ScanInput{
			TokenValue: req.QRCode,
			UserID:     claims.Identity.ID,
			Location: attendance.Coordinate{
				Latitude:  *req.Latitude,
				Longitude: *req.Longitude,
			},
		})
		if err != nil {
			if r, isReject := attendance.AsRejection(err); isReject {
				c.JSON(statusForRejection(r.Kind), r)
				return
			}
			c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error()))
			return
		}

		c.JSON(http.StatusOK, common.NewSuccessResponse(newRecordResponse(rec)))
	}
}

// TodayHandler lists the authenticated user's records for today, for the
// device result screen.
func TodayHandler(records RecordStore, loc *time.Location) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := middlewares.IdentityFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, common.NewErrorResponse("missing identity"))
			return
		}

		date := time.Now().In(loc).Format("2006-01-02")
		recs, err := records.RecordsForUserOn(c.Request.Context(), claims.Identity.ID, date)
		if err != nil {
			c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error()))
			return
		}

		out := utils.Map(recs, func(rec attendance.Record) RecordResponse {
			return newRecordResponse(&rec)
		})
		c.JSON(http.StatusOK, common.NewSuccessResponse(out))
	}
}

// OfficesHandler lists offices for the rotation loop and admin pickers.
func OfficesHandler(records RecordStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		offices, err := records.Offices(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error()))
			return
		}
		out := utils.Map(offices, func(o attendance.Office) OfficeResponse {
			return OfficeResponse{
				ID:           o.ID,
				Name:         o.Name,
				Latitude:     o.Coordinate.Latitude,
				Longitude:    o.Coordinate.Longitude,
				RadiusMeters: o.RadiusMeters,
			}
		})
		c.JSON(http.StatusOK, common.NewSuccessResponse(out))
	}
}

// SearchHandler pages attendance records for the admin table.
func SearchHandler(records RecordStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SearchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, common.NewErrorResponse(common.FormatBindingError(err)))
			return
		}

		limit := 1000
		offset := 0
		if val, err := strconv.Atoi(c.Query("limit")); err == nil {
			limit = val
		}
		if val, err := strconv.Atoi(c.Query("offset")); err == nil {
			offset = val
		}

		recs, total, err := records.SearchRecords(c.Request.Context(), store.SearchParams{
			StartDate: req.StartDate.Format("2006-01-02"),
			EndDate:   req.EndDate.Format("2006-01-02"),
			OfficeID:  req.OfficeID,
			UserIDs:   req.UserIDs,
			Limit:     limit,
			Offset:    offset,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error()))
			return
		}

		out := utils.Map(recs, func(rec attendance.Record) RecordResponse {
			return newRecordResponse(&rec)
		})
		c.JSON(http.StatusOK, common.NewSearchResponse(out, total))
	}
}

// statusForRejection keeps the verdict-to-HTTP mapping in one place.
// Duplicates are conflicts, storage trouble is retryable, everything else is
// an unprocessable scan.
func statusForRejection(kind attendance.RejectKind) int {
	switch kind {
	case attendance.RejectDuplicateAttendance:
		return http.StatusConflict
	case attendance.RejectTransientStorage:
		return http.StatusServiceUnavailable
	case attendance.RejectTokenInvalid:
		return http.StatusGone
	default:
		return http.StatusUnprocessableEntity
	}
}
