package logging

import "context"

// Reporter forwards unexpected errors to an error tracking sink.
type Reporter interface {
	Report(ctx context.Context, err error, args ...any)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(ctx context.Context, err error, args ...any)

func (f ReporterFunc) Report(ctx context.Context, err error, args ...any) {
	f(ctx, err, args...)
}

// LogReporter reports errors by logging them at error level.
type LogReporter struct {
	logger   Logger
	onReport func()
}

func NewLogReporter(logger Logger, onReport func()) *LogReporter {
	return &LogReporter{logger: logger, onReport: onReport}
}

func (r *LogReporter) Report(ctx context.Context, err error, args ...any) {
	r.logger.Error(ctx, "unexpected error", append([]any{"error", err}, args...)...)
	if r.onReport != nil {
		r.onReport()
	}
}
