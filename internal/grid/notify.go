package grid

import (
	"log/slog"

	"github.com/JonMunkholm/datagrid/internal/core"
)

// Level is a notice's severity.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

// Notice is a user-facing message raised by the controller.
type Notice struct {
	Level   Level
	Kind    ErrorKind
	Message string
	Code    string
	Err     error
}

// Notifier receives notices. Implementations must not block.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// errorNotice builds the notice for err using the user-facing error catalog.
func errorNotice(err error) Notice {
	kind := Classify(err)
	msg := core.MapError(err)

	level := LevelError
	if kind == KindValidation || kind == KindPrecondition {
		level = LevelWarning
	}

	text := msg.Message
	if kind == KindValidation {
		text = err.Error()
	}
	return Notice{Level: level, Kind: kind, Message: text, Code: msg.Code, Err: err}
}

// logNotice writes n to logger at the matching level.
func logNotice(logger *slog.Logger, n Notice) {
	attrs := []any{"kind", n.Kind.String(), "code", n.Code}
	if n.Err != nil {
		attrs = append(attrs, "error", n.Err)
	}
	switch n.Level {
	case LevelError:
		logger.Error(n.Message, attrs...)
	case LevelWarning:
		logger.Warn(n.Message, attrs...)
	default:
		logger.Info(n.Message, attrs...)
	}
}
