package observability

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger for background work that has no request context.
type Logger struct {
	*slog.Logger
}

// GlobalLogger is used by the badge engine, sweeper and hubs.
var GlobalLogger = &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stdout, nil))}

// SetGlobalLogger makes background code log through l, normally the HTTP
// logger so both share one handler and level. A nil l is ignored.
func SetGlobalLogger(l *slog.Logger) {
	if l != nil {
		GlobalLogger = &Logger{Logger: l}
	}
}

// FeedLogger logs badge feed connections of one hub.
type FeedLogger struct {
	log *slog.Logger
}

func NewFeedLogger(hub string) *FeedLogger {
	return &FeedLogger{log: GlobalLogger.With(slog.String("hub", hub))}
}

func (l *FeedLogger) forGroup(groupID uint) *slog.Logger {
	if groupID == 0 {
		return l.log
	}
	return l.log.With(slog.Uint64("group_id", uint64(groupID)))
}

// Connected records a subscriber joining the feed of groupID.
func (l *FeedLogger) Connected(ctx context.Context, groupID uint, remote string) {
	l.forGroup(groupID).InfoContext(ctx, "badge feed subscriber connected", slog.String("remote", remote))
}

// Disconnected records a subscriber leaving, with the close reason.
func (l *FeedLogger) Disconnected(ctx context.Context, groupID uint, reason string) {
	l.forGroup(groupID).InfoContext(ctx, "badge feed subscriber left", slog.String("reason", reason))
}

// Failed records an error during stage (register, read, subscribe, publish).
// groupID 0 means the failure is not tied to one group.
func (l *FeedLogger) Failed(ctx context.Context, groupID uint, stage string, err error) {
	l.forGroup(groupID).ErrorContext(ctx, "badge feed error",
		slog.String("stage", stage),
		slog.String("error", err.Error()),
	)
}

// Job logs the lifecycle of one background run such as a badge sweep.
type Job struct {
	ctx   context.Context
	log   *slog.Logger
	start time.Time
}

// StartJob logs that name began and returns a handle to log its outcome.
func StartJob(ctx context.Context, name string, attrs ...slog.Attr) *Job {
	j := &Job{ctx: ctx, log: GlobalLogger.With(slog.String("job", name)), start: time.Now()}
	j.log.LogAttrs(ctx, slog.LevelInfo, "job started", attrs...)
	return j
}

// Elapsed is the time since StartJob.
func (j *Job) Elapsed() time.Duration { return time.Since(j.start) }

// Fail logs err without ending the job; a sweep keeps going after a bad batch.
func (j *Job) Fail(err error, attrs ...slog.Attr) {
	attrs = append(attrs, slog.String("error", err.Error()))
	j.log.LogAttrs(j.ctx, slog.LevelError, "job step failed", attrs...)
}

// Done logs completion with the elapsed time.
func (j *Job) Done(attrs ...slog.Attr) {
	attrs = append(attrs, slog.Int64("duration_ms", j.Elapsed().Milliseconds()))
	j.log.LogAttrs(j.ctx, slog.LevelInfo, "job finished", attrs...)
}
