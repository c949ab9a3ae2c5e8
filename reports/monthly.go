// Package reports renders attendance data into spreadsheets for HR.
package reports

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"hadirku.id/hadirku/attendance"
	"hadirku.id/hadirku/utils"
)

const (
	sheetName        = "Attendance"
	summarySheetName = "Per user"
)

var headers = []string{"User ID", "Date", "Type", "Time", "Office ID", "Status", "Latitude", "Longitude"}

// BuildMonthly renders one calendar month of records into an xlsx workbook.
// Rows come in store order (user, date, type); a summary block at the bottom
// counts the status outcomes.
func BuildMonthly(records []attendance.Record, year int, month time.Month) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(sheet)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	title := fmt.Sprintf("Attendance %s %d", month.String(), year)
	if err := f.SetCellValue(sheetName, "A1", title); err != nil {
		return nil, err
	}

	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 2)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, err
		}
	}

	onTime, late := 0, 0
	for i, rec := range records {
		row := i + 3
		values := []any{
			rec.UserID,
			rec.Date,
			string(rec.Type),
			rec.Timestamp.Format("15:04:05"),
			rec.OfficeID,
			string(rec.Status),
			rec.Location.Latitude,
			rec.Location.Longitude,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, err
			}
		}
		switch rec.Status {
		case attendance.StatusOnTime:
			onTime++
		case attendance.StatusLate:
			late++
		}
	}

	summaryRow := len(records) + 4
	summary := [][2]any{
		{"Total records", len(records)},
		{"On time", onTime},
		{"Late", late},
	}
	for i, pair := range summary {
		labelCell, _ := excelize.CoordinatesToCellName(1, summaryRow+i)
		valueCell, _ := excelize.CoordinatesToCellName(2, summaryRow+i)
		if err := f.SetCellValue(sheetName, labelCell, pair[0]); err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, valueCell, pair[1]); err != nil {
			return nil, err
		}
	}

	if err := writePerUserSheet(f, records); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return &buf, nil
}

// writePerUserSheet adds one row per user with their month's counts, which
// is what HR actually reads first.
func writePerUserSheet(f *excelize.File, records []attendance.Record) error {
	if _, err := f.NewSheet(summarySheetName); err != nil {
		return err
	}

	for i, h := range []string{"User ID", "Check-ins", "Check-outs", "Late"} {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(summarySheetName, cell, h); err != nil {
			return err
		}
	}

	perUser := utils.GroupBy(records, func(r attendance.Record) uint {
		return r.UserID
	})
	userIDs := make([]uint, 0, len(perUser))
	for id := range perUser {
		userIDs = append(userIDs, id)
	}
	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })

	for row, id := range userIDs {
		recs := perUser[id]
		checkIns := len(utils.Filter(recs, func(r attendance.Record) bool {
			return r.Type == attendance.TypeCheckIn
		}))
		late := len(utils.Filter(recs, func(r attendance.Record) bool {
			return r.Status == attendance.StatusLate
		}))
		values := []any{id, checkIns, len(recs) - checkIns, late}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(summarySheetName, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// Filename names a monthly workbook, office 0 meaning all offices.
func Filename(officeID uint, year int, month time.Month) string {
	if officeID == 0 {
		return fmt.Sprintf("attendance-%04d-%02d.xlsx", year, month)
	}
	return fmt.Sprintf("attendance-office%d-%04d-%02d.xlsx", officeID, year, month)
}
