// Package progress defines the cooperative progress-reporting contract
// used by long-running engine operations. Reporting is synchronous: the
// operation calls into the task from its own goroutine and continues when
// the call returns.
package progress

import "log/slog"

// Task receives discrete progress transitions from one tracked operation.
type Task interface {
	// SetMax declares how many steps the operation will report.
	SetMax(n int)

	// Doing reports that a step has started.
	Doing(label string)

	// Done reports that a step finished successfully.
	Done(label string)

	// Fail reports that a step failed with the given reason. The
	// operation halts after a failure; no further transitions follow.
	Fail(label string, err error)

	// Complete reports that the whole operation finished.
	Complete(label string)

	// MarkLengthy flags the current step as having unbounded or
	// interactive duration, so observers can suppress timeouts.
	MarkLengthy(lengthy bool)

	// Begin starts a tracked sub-operation and returns its task.
	Begin(label string) Task
}

// Discard is a Task that ignores every transition. Use it on headless
// paths instead of passing nil.
var Discard Task = discardTask{}

type discardTask struct{}

func (discardTask) SetMax(int)         {}
func (discardTask) Doing(string)       {}
func (discardTask) Done(string)        {}
func (discardTask) Fail(string, error) {}
func (discardTask) Complete(string)    {}
func (discardTask) MarkLengthy(bool)   {}
func (discardTask) Begin(string) Task  { return Discard }

// Logger reports transitions through a structured logger. Sub-tasks share
// the parent logger with a "task" attribute.
type Logger struct {
	log  *slog.Logger
	name string
}

// NewLogger returns a Task logging through log. A nil log uses
// slog.Default().
func NewLogger(log *slog.Logger, name string) *Logger {
	if log == nil {
		log = slog.Default()
	}
	return &Logger{log: log, name: name}
}

func (l *Logger) SetMax(n int) {
	l.log.Debug("progress scope", "task", l.name, "steps", n)
}

func (l *Logger) Doing(label string) {
	l.log.Info(label, "task", l.name, "state", "doing")
}

func (l *Logger) Done(label string) {
	l.log.Info(label, "task", l.name, "state", "done")
}

func (l *Logger) Fail(label string, err error) {
	l.log.Error(label, "task", l.name, "error", err)
}

func (l *Logger) Complete(label string) {
	l.log.Info(label, "task", l.name, "state", "complete")
}

func (l *Logger) MarkLengthy(lengthy bool) {
	if lengthy {
		l.log.Info("step may take a while", "task", l.name)
	}
}

func (l *Logger) Begin(label string) Task {
	l.log.Info(label, "task", l.name, "state", "begin")
	return &Logger{log: l.log, name: label}
}
