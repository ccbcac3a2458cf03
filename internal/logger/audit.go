// Package logger provides structured audit logging for email mutations.
package logger

import (
	"log/slog"
	"os"
	"time"
)

// AuditLogger records every mutation against the email table so state
// changes can be traced after the fact. Content bodies are never logged.
type AuditLogger struct {
	logger *slog.Logger
}

// NewAuditLogger creates a new AuditLogger with JSON output.
func NewAuditLogger() *AuditLogger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return &AuditLogger{
		logger: slog.New(handler),
	}
}

// NewAuditLoggerWithHandler creates an AuditLogger with a custom handler.
func NewAuditLoggerWithHandler(handler slog.Handler) *AuditLogger {
	return &AuditLogger{
		logger: slog.New(handler),
	}
}

// EmailCreated logs the creation of a new email record.
func (a *AuditLogger) EmailCreated(id uint, threadID, direction string) {
	a.logger.Info("email_created",
		slog.String("event_type", "create"),
		slog.Uint64("id", uint64(id)),
		slog.String("thread_id", threadID),
		slog.String("direction", direction),
		slog.Time("timestamp", time.Now().UTC()),
	)
}

// FlagsUpdated logs a flag mutation and which flags changed.
func (a *AuditLogger) FlagsUpdated(target string, affected int, flags []string) {
	a.logger.Info("email_flags_updated",
		slog.String("event_type", "update"),
		slog.String("target", target),
		slog.Int("affected", affected),
		slog.Any("flags", flags),
		slog.Time("timestamp", time.Now().UTC()),
	)
}

// SoftDeleted logs a soft-delete, with the scoping filter when present.
func (a *AuditLogger) SoftDeleted(target, filter string, affected int64) {
	a.logger.Info("email_soft_deleted",
		slog.String("event_type", "soft_delete"),
		slog.String("target", target),
		slog.String("filter", filter),
		slog.Int64("affected", affected),
		slog.Time("timestamp", time.Now().UTC()),
	)
}

// MutationFailed logs a mutation that was rejected or errored.
func (a *AuditLogger) MutationFailed(operation, target, reason string) {
	a.logger.Warn("email_mutation_failed",
		slog.String("event_type", "mutation_failed"),
		slog.String("operation", operation),
		slog.String("target", target),
		slog.String("reason", reason),
		slog.Time("timestamp", time.Now().UTC()),
	)
}
