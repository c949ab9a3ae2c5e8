package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"

	"hadirku.id/hadirku/attendance"
	"hadirku.id/hadirku/core"
	"hadirku.id/hadirku/infrastructure/communication"
	"hadirku.id/hadirku/infrastructure/devops"
	"hadirku.id/hadirku/infrastructure/filesystem"
	"hadirku.id/hadirku/store"
	"hadirku.id/hadirku/web/handlers"
	"hadirku.id/hadirku/web/middlewares"
)

func main() {
	ctx := context.Background()

	cfg, err := devops.LoadAppConfig(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("using timezone: %s, token ttl: %s\n", cfg.Timezone, cfg.TokenTTL())

	jwtSecret, err := base64.StdEncoding.DecodeString(cfg.SigningSecret)
	if err != nil {
		log.Fatal("Failed to decode JWT secret:", err)
	}

	dm, err := core.New(cfg.DSN, 10, core.LogLevelWarn)
	if err != nil {
		log.Fatal(err)
	}
	defer dm.Close()

	st := store.New(dm)
	loc := cfg.Location()

	tokens := attendance.NewTokenStore(cfg.TokenTTL())
	schedule := attendance.NewScheduleResolver(st, loc)
	verifier := attendance.NewScanVerifier(tokens, st, schedule, st, attendance.VerifierConfig{
		OpenAttendance: cfg.OpenAttendance,
		Location:       loc,
	})

	ops := communication.ConnectSlack()
	alerting := &alertingVerifier{verifier: verifier, ops: ops}

	r := gin.Default()

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	api := r.Group("/api")
	api.Use(middlewares.Authentication(jwtSecret))
	{
		api.POST("/scan-qr", handlers.ScanQRHandler(alerting))
		api.GET("/attendance/today", handlers.TodayHandler(st, loc))

		admin := api.Group("")
		admin.Use(middlewares.RequireAdmin())
		{
			admin.POST("/generate-qr", handlers.GenerateQRHandler(tokens, st))
			admin.GET("/qr", handlers.LiveQRHandler(tokens))
			admin.GET("/offices", handlers.OfficesHandler(st))
			admin.POST("/attendance/search", handlers.SearchHandler(st))
			admin.GET("/reports/attendance", handlers.MonthlyReportHandler(st, handlers.ReportConfig{
				Bucket: cfg.ReportBucket,
				Sender: cfg.MailSender,
			}, archiveReport, communication.SendEmail))
		}
	}

	if err := ops.Info(fmt.Sprintf("hadirku server starting on port %s", cfg.Port)); err != nil {
		log.Printf("slack notify failed: %v", err)
	}

	if err := r.Run("0.0.0.0:" + cfg.Port); err != nil {
		_ = ops.Error(fmt.Sprintf("hadirku server stopped: %v", err))
		log.Fatal(err)
	}
}

func archiveReport(ctx context.Context, bucket, key string, data []byte) error {
	return filesystem.WriteFile(bucket, key, ctx, data)
}

// alertingVerifier pages the ops channel when a scan cannot be committed.
type alertingVerifier struct {
	verifier *attendance.ScanVerifier
	ops      *communication.Slack
}

func (a *alertingVerifier) Verify(ctx context.Context, in attendance.ScanInput) (*attendance.Record, error) {
	rec, err := a.verifier.Verify(ctx, in)
	if attendance.IsKind(err, attendance.RejectTransientStorage) {
		_ = a.ops.Error(fmt.Sprintf("scan for user %d failed on storage: %v", in.UserID, err))
	}
	return rec, err
}
