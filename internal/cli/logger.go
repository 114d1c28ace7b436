package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/abczzz13/realip"
)

func newLogger(out io.Writer, level, format string) (*logrus.Logger, error) {
	l := logrus.New()
	l.Out = out

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	l.Level = lvl

	switch format {
	case "json":
		l.Formatter = &logrus.JSONFormatter{PrettyPrint: false}
	case "json_pretty":
		l.Formatter = &logrus.JSONFormatter{PrettyPrint: true}
	case "text", "":
		l.Formatter = &logrus.TextFormatter{
			DisableQuote:  true,
			FullTimestamp: true,
		}
	default:
		return nil, fmt.Errorf("unknown log format %q (must be text, json or json_pretty)", format)
	}

	return l, nil
}

// resolverLogger adapts a logrus logger to realip.Logger.
type resolverLogger struct {
	l *logrus.Logger
}

var _ realip.Logger = resolverLogger{}

func (r resolverLogger) WarnContext(ctx context.Context, msg string, args ...any) {
	r.l.WithContext(ctx).WithFields(fieldsFromArgs(args)).Warn(msg)
}

// fieldsFromArgs converts slog-style alternating key/value arguments. A
// trailing value without a key is kept under "!BADKEY", as slog does.
func fieldsFromArgs(args []any) logrus.Fields {
	fields := make(logrus.Fields, len(args)/2+1)
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		fields[key] = args[i+1]
	}
	if len(args)%2 == 1 {
		fields["!BADKEY"] = args[len(args)-1]
	}
	return fields
}
