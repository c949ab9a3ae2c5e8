package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"hadirku.id/hadirku/infrastructure/communication"
	"hadirku.id/hadirku/reports"
	"hadirku.id/hadirku/web/common"
)

// ReportConfig carries the delivery settings for generated reports.
type ReportConfig struct {
	Bucket string // S3 archive bucket, empty disables archiving
	Sender string // SES sender address, empty disables mailing
}

// ArchiveFunc stores a generated report object.
type ArchiveFunc func(ctx context.Context, bucket, key string, data []byte) error

// MailFunc sends a generated report by email.
type MailFunc func(ctx context.Context, info *communication.EmailInfo) error

// MonthlyReportHandler builds the xlsx for one month, archives and mails it
// when configured, and streams it back as an attachment.
func MonthlyReportHandler(records RecordStore, cfg ReportConfig, archive ArchiveFunc, mail MailFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		month, err := time.Parse("2006-01", c.Query("month"))
		if err != nil {
			c.JSON(http.StatusBadRequest, common.NewErrorResponse("month must look like 2026-03"))
			return
		}

		var officeID uint
		if raw := c.Query("office_id"); raw != "" {
			id, err := strconv.ParseUint(raw, 10, 32)
			if err != nil {
				c.JSON(http.StatusBadRequest, common.NewErrorResponse("office_id must be numeric"))
				return
			}
			officeID = uint(id)
		}

		ctx := c.Request.Context()
		recs, err := records.RecordsForMonth(ctx, officeID, month.Year(), month.Month())
		if err != nil {
			c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error()))
			return
		}

		buf, err := reports.BuildMonthly(recs, month.Year(), month.Month())
		if err != nil {
			c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error()))
			return
		}
		filename := reports.Filename(officeID, month.Year(), month.Month())
		data := buf.Bytes()

		if cfg.Bucket != "" && archive != nil {
			if err := archive(ctx, cfg.Bucket, filename, data); err != nil {
				c.JSON(http.StatusInternalServerError, common.NewErrorResponse(fmt.Sprintf("archive report: %v", err)))
				return
			}
		}

		if to := c.Query("email"); to != "" {
			if cfg.Sender == "" || mail == nil {
				c.JSON(http.StatusBadRequest, common.NewErrorResponse("report mailing is not configured"))
				return
			}
			err := mail(ctx, &communication.EmailInfo{
				From:           cfg.Sender,
				To:             []string{to},
				Subject:        fmt.Sprintf("Attendance report %s", month.Format("2006-01")),
				Body:           "Attached is the monthly attendance report.",
				AttachmentName: filename,
				Attachment:     data,
			})
			if err != nil {
				c.JSON(http.StatusInternalServerError, common.NewErrorResponse(fmt.Sprintf("mail report: %v", err)))
				return
			}
		}

		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
	}
}
