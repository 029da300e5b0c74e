// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/trackhub/internal/app/store/audit"
	"github.com/dalemusser/trackhub/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// Destination settings for a category.
const (
	All = "all" // MongoDB + zap
	DB  = "db"  // MongoDB only
	Log = "log" // zap only
	Off = "off" // disabled
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for authentication events (register, login, logout).
	Auth string
	// Admin controls logging for project, membership, task and group changes.
	Admin string
}

// ValidSetting reports whether s is one of all, db, log, off.
func ValidSetting(s string) bool {
	switch s {
	case All, DB, Log, Off:
		return true
	}
	return false
}

// Logger provides convenience methods for logging audit events.
// It logs to MongoDB (via audit.Store) and/or structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	if zapLog == nil {
		zapLog = zap.NewNop()
	}
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

func ptr(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}

// fromRequest fills the request context fields of an event.
func fromRequest(r *http.Request, ev audit.Event) audit.Event {
	if r != nil {
		ev.IP = ratelimit.ClientIP(r)
		ev.UserAgent = r.UserAgent()
	}
	return ev
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UserID != nil {
		fields = append(fields, zap.Int64("user_id", *event.UserID))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.Int64("actor_id", *event.ActorID))
	}
	if event.ProjectID != nil {
		fields = append(fields, zap.Int64("project_id", *event.ProjectID))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// A nil Logger is a no-op so handlers and tests can run without one.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	}
	if setting == "" {
		setting = All
	}
	if setting == Off {
		return
	}

	if setting == All || setting == Log {
		l.logToZap(event)
	}
	if (setting == All || setting == DB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType))
		}
	}
}

// --- Authentication Events ---

// UserRegistered logs a self-service registration.
func (l *Logger) UserRegistered(ctx context.Context, r *http.Request, userID int64, username string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventUserRegistered,
		UserID:    ptr(userID),
		Success:   true,
		Details:   map[string]string{"username": username},
	}))
}

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID int64, username string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    ptr(userID),
		Success:   true,
		Details:   map[string]string{"username": username},
	}))
}

// LoginFailedUserNotFound logs a failed login for an unknown username.
func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, attempted string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedUserNotFound,
		Success:       false,
		FailureReason: "user not found",
		Details:       map[string]string{"attempted_username": attempted},
	}))
}

// LoginFailedWrongPassword logs a failed login with a bad password.
func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, userID int64, username string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedWrongPassword,
		UserID:        ptr(userID),
		Success:       false,
		FailureReason: "wrong password",
		Details:       map[string]string{"username": username},
	}))
}

// LoginFailedRateLimit logs a login refused by the limiter.
func (l *Logger) LoginFailedRateLimit(ctx context.Context, r *http.Request, username, limitType string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedRateLimit,
		Success:       false,
		FailureReason: "rate limit exceeded",
		Details: map[string]string{
			"attempted_username": username,
			"limit_type":         limitType,
		},
	}))
}

// Logout logs a sign-out. userID is 0 for an anonymous logout.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userID int64) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		UserID:    ptr(userID),
		Success:   true,
	}))
}

// --- Admin Events ---

// ProjectCreated logs a new project.
func (l *Logger) ProjectCreated(ctx context.Context, r *http.Request, actorID, projectID int64, name string, creatorJoined bool) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventProjectCreated,
		ActorID:   ptr(actorID),
		ProjectID: ptr(projectID),
		Success:   true,
		Details: map[string]string{
			"project_name":   name,
			"creator_joined": strconv.FormatBool(creatorJoined),
		},
	}))
}

// MemberAddedToProject logs a membership grant.
func (l *Logger) MemberAddedToProject(ctx context.Context, r *http.Request, actorID, userID, projectID int64) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventMemberAddedToProject,
		UserID:    ptr(userID),
		ActorID:   ptr(actorID),
		ProjectID: ptr(projectID),
		Success:   true,
	}))
}

// MemberRemovedFromProject logs a membership removal.
func (l *Logger) MemberRemovedFromProject(ctx context.Context, r *http.Request, actorID, userID, projectID int64) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventMemberRemovedFromProject,
		UserID:    ptr(userID),
		ActorID:   ptr(actorID),
		ProjectID: ptr(projectID),
		Success:   true,
	}))
}

func (l *Logger) taskEvent(ctx context.Context, r *http.Request, eventType string, actorID, projectID, taskID int64, summary string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: eventType,
		ActorID:   ptr(actorID),
		ProjectID: ptr(projectID),
		Success:   true,
		Details: map[string]string{
			"task_id": strconv.FormatInt(taskID, 10),
			"summary": summary,
		},
	}))
}

// TaskCreated logs a new task.
func (l *Logger) TaskCreated(ctx context.Context, r *http.Request, actorID, projectID, taskID int64, summary string) {
	l.taskEvent(ctx, r, audit.EventTaskCreated, actorID, projectID, taskID, summary)
}

// TaskUpdated logs an edit to a task.
func (l *Logger) TaskUpdated(ctx context.Context, r *http.Request, actorID, projectID, taskID int64, summary string) {
	l.taskEvent(ctx, r, audit.EventTaskUpdated, actorID, projectID, taskID, summary)
}

// TaskDeleted logs a deleted task.
func (l *Logger) TaskDeleted(ctx context.Context, r *http.Request, actorID, projectID, taskID int64, summary string) {
	l.taskEvent(ctx, r, audit.EventTaskDeleted, actorID, projectID, taskID, summary)
}

// GroupGranted logs a role granted outside a request (startup bootstrap).
func (l *Logger) GroupGranted(ctx context.Context, userID int64, group, source string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventGroupGranted,
		UserID:    ptr(userID),
		Success:   true,
		Details: map[string]string{
			"group":  group,
			"source": source,
		},
	})
}
