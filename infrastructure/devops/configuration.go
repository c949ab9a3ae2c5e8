package devops

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"hadirku.id/hadirku/utils"
)

// AppConfig is the deployment configuration, stored as one YAML document in
// SSM Parameter Store. Every field has an env-var override for local dev.
type AppConfig struct {
	DSN             string `yaml:"dsn"`
	SigningSecret   string `yaml:"signing_secret"` // base64 HS256 key
	TokenTTLSeconds int    `yaml:"token_ttl_seconds"`
	OpenAttendance  bool   `yaml:"open_attendance"`
	Timezone        string `yaml:"timezone"`
	ReportBucket    string `yaml:"report_bucket"`
	MailSender      string `yaml:"mail_sender"`
	Port            string `yaml:"port"`
}

var (
	once    sync.Once
	loaded  AppConfig
	loadErr error
)

// LoadAppConfig reads the SSM parameter once and applies env overrides. When
// HADIRKU_SKIP_SSM is set the config comes from env alone.
func LoadAppConfig(ctx context.Context) (AppConfig, error) {
	once.Do(func() {
		cfg := AppConfig{
			TokenTTLSeconds: 120,
			Timezone:        "Asia/Jakarta",
			Port:            "8080",
		}

		if os.Getenv("HADIRKU_SKIP_SSM") == "" {
			paramName := "hadirku-config"

			awsCfg, err := config.LoadDefaultConfig(ctx)
			if err != nil {
				loadErr = fmt.Errorf("load aws config: %w", err)
				return
			}

			client := ssm.NewFromConfig(awsCfg)

			out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
				Name:           aws.String(paramName),
				WithDecryption: aws.Bool(true),
			})
			if err != nil {
				loadErr = fmt.Errorf("get parameter: %w", err)
				return
			}

			if err := yaml.Unmarshal([]byte(*out.Parameter.Value), &cfg); err != nil {
				loadErr = fmt.Errorf("unmarshal yaml: %w", err)
				return
			}
		}

		applyEnvOverrides(&cfg)
		loaded = cfg
	})

	return loaded, loadErr
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := os.Getenv("DSN"); v != "" {
		cfg.DSN = v
	}
	if v := os.Getenv("HADIRKU_SIGNING_SECRET"); v != "" {
		cfg.SigningSecret = v
	}
	if v := os.Getenv("TOKEN_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TokenTTLSeconds = n
		}
	}
	if v := os.Getenv("OPEN_ATTENDANCE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.OpenAttendance = b
		}
	}
	if v := os.Getenv("TIMEZONE"); v != "" {
		cfg.Timezone = v
	}
	if v := os.Getenv("REPORT_BUCKET"); v != "" {
		cfg.ReportBucket = v
	}
	if v := os.Getenv("MAIL_SENDER"); v != "" {
		cfg.MailSender = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
}

// TokenTTL is the configured QR validity window.
func (c AppConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLSeconds) * time.Second
}

// Location resolves the configured timezone. Containers without tzdata fall
// back to the fixed WIB offset.
func (c AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return utils.JakartaTZ
	}
	return loc
}
