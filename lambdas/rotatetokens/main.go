package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"hadirku.id/hadirku/attendance"
	"hadirku.id/hadirku/client"
	"hadirku.id/hadirku/infrastructure/communication"
)

// Scheduled every minute by EventBridge. Rotates the live QR token for each
// office and both attendance types, so a leaked photograph of a display is
// stale within a token TTL even if nobody presses refresh.
type RotateEvent struct {
	DryRun bool `json:"dryRun"`
}

type RotateStats struct {
	Offices int `json:"offices"`
	Rotated int `json:"rotated"`
	Failed  int `json:"failed"`
}

func HandleRequest(ctx context.Context, event RotateEvent) (RotateStats, error) {
	baseURL := os.Getenv("HADIRKU_API_URL")
	apiToken := os.Getenv("HADIRKU_API_TOKEN")
	if baseURL == "" || apiToken == "" {
		return RotateStats{}, fmt.Errorf("HADIRKU_API_URL and HADIRKU_API_TOKEN must be set")
	}

	api := client.NewClient(baseURL, apiToken)

	offices, err := api.Attendance.Offices(ctx)
	if err != nil {
		return RotateStats{}, fmt.Errorf("failed to list offices: %w", err)
	}

	stats := RotateStats{Offices: len(offices)}
	for _, office := range offices {
		for _, typ := range []attendance.AttendanceType{attendance.TypeCheckIn, attendance.TypeCheckOut} {
			if event.DryRun {
				fmt.Printf("[INFO] dry run, would rotate office %d type %s\n", office.ID, typ)
				continue
			}
			token, err := api.Attendance.GenerateQR(ctx, office.ID, typ)
			if err != nil {
				fmt.Printf("[ERROR] failed to rotate office %d type %s: %v\n", office.ID, typ, err)
				stats.Failed++
				continue
			}
			fmt.Printf("[INFO] rotated office %d type %s, expires %s\n", office.ID, typ, token.ExpiresAt)
			stats.Rotated++
		}
	}

	if stats.Failed > 0 {
		ops := communication.ConnectSlack()
		_ = ops.Error(fmt.Sprintf("token rotation: %d of %d rotations failed", stats.Failed, stats.Rotated+stats.Failed))
	}

	fmt.Printf("[INFO] rotation finished: %+v\n", stats)
	return stats, nil
}

func main() {
	lambda.Start(HandleRequest)
}
