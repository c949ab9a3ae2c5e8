package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"gorm.io/gorm/clause"

	"hadirku.id/hadirku/core"
	"hadirku.id/hadirku/infrastructure/filesystem"
	"hadirku.id/hadirku/model"
	"hadirku.id/hadirku/utils"
)

// Imports weekly shift assignments from a CSV with columns
// user_id,day_of_week,office_id,shift_id (0 = Sunday). Rows upsert on
// (user_id, day_of_week, office_id), so re-running the same file is safe.
// The source may be a local path or s3://bucket/key.
func main() {
	if len(os.Args) != 2 {
		log.Fatalf("usage: %s <file.csv | s3://bucket/key>", os.Args[0])
	}
	src := os.Args[1]
	ctx := context.Background()

	stream, err := openSource(ctx, src)
	if err != nil {
		log.Fatalf("failed to open %s: %v", src, err)
	}

	rows, err := utils.ParseCSV(stream)
	if err != nil {
		log.Fatalf("failed to parse CSV: %v", err)
	}

	assignments, err := parseAssignments(rows)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Parsed %d assignments\n", len(assignments))

	dm, err := core.New(os.Getenv("DSN"), 5, core.LogLevelWarn)
	if err != nil {
		log.Fatal(err)
	}
	defer dm.Close()

	err = dm.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "day_of_week"}, {Name: "office_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"shift_id"}),
	}).Create(&assignments).Error
	if err != nil {
		log.Fatalf("failed to upsert assignments: %v", err)
	}
	fmt.Printf("Upserted %d assignments\n", len(assignments))
}

func openSource(ctx context.Context, src string) (io.Reader, error) {
	if rest, ok := strings.CutPrefix(src, "s3://"); ok {
		bucket, key, found := strings.Cut(rest, "/")
		if !found {
			return nil, fmt.Errorf("s3 source must look like s3://bucket/key")
		}
		var buf bytes.Buffer
		if err := filesystem.ReadFile(bucket, key, ctx, &buf); err != nil {
			return nil, err
		}
		return &buf, nil
	}
	return os.Open(src)
}

func parseAssignments(rows [][]string) ([]model.UserShift, error) {
	out := make([]model.UserShift, 0, len(rows))
	for i, row := range rows {
		if i == 0 && strings.EqualFold(row[0], "user_id") {
			continue
		}
		if len(row) != 4 {
			return nil, fmt.Errorf("row %d: want 4 columns, got %d", i+1, len(row))
		}
		userID, err := strconv.ParseUint(strings.TrimSpace(row[0]), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad user_id %q", i+1, row[0])
		}
		day, err := strconv.Atoi(strings.TrimSpace(row[1]))
		if err != nil || day < 0 || day > 6 {
			return nil, fmt.Errorf("row %d: bad day_of_week %q", i+1, row[1])
		}
		officeID, err := strconv.ParseUint(strings.TrimSpace(row[2]), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad office_id %q", i+1, row[2])
		}
		shiftID, err := strconv.ParseUint(strings.TrimSpace(row[3]), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad shift_id %q", i+1, row[3])
		}
		out = append(out, model.UserShift{
			UserID:    uint(userID),
			DayOfWeek: int32(day),
			OfficeID:  uint(officeID),
			ShiftID:   uint(shiftID),
		})
	}
	return out, nil
}
