package logging

import (
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"github.com/emilythestrangee/stackit/backend/internal/config"
)

// RedactedText replaces credentials in anything that gets logged.
const RedactedText = "[REDACTED]"

var (
	// user:pass@host in URL-style connection strings
	connStringPattern = regexp.MustCompile(`://([^:/@\s]+):[^@\s]+@`)
	// password=xxx in key/value connection strings
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd)=[^;&\s]+`)
)

// New builds the process logger. "json" selects the production encoder,
// anything else the development console encoder.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.Format == "json" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	zcfg.Level = level

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

// SanitizeConnectionString removes passwords from a connection string before logging.
func SanitizeConnectionString(connStr string) string {
	if connStr == "" {
		return ""
	}
	sanitized := connStringPattern.ReplaceAllString(connStr, "://${1}:"+RedactedText+"@")
	return passwordPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
}
