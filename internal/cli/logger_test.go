package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		format    string
		wantLevel logrus.Level
		wantErr   bool
	}{
		{name: "text info", level: "info", format: "text", wantLevel: logrus.InfoLevel},
		{name: "empty format is text", level: "debug", format: "", wantLevel: logrus.DebugLevel},
		{name: "json warn", level: "warn", format: "json", wantLevel: logrus.WarnLevel},
		{name: "json pretty", level: "error", format: "json_pretty", wantLevel: logrus.ErrorLevel},
		{name: "bad level", level: "verbose", format: "text", wantErr: true},
		{name: "bad format", level: "info", format: "logfmt", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := newLogger(&bytes.Buffer{}, tt.level, tt.format)
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantLevel, l.Level)
		})
	}
}

type traceKey struct{}

func TestResolverLogger_WarnContext(t *testing.T) {
	var buf bytes.Buffer
	l, err := newLogger(&buf, "info", "json")
	require.NoError(t, err)

	var hooked context.Context
	l.AddHook(contextHook(func(ctx context.Context) { hooked = ctx }))

	ctx := context.WithValue(context.Background(), traceKey{}, "trace-1")
	resolverLogger{l: l}.WarnContext(ctx, "forwarding header received from untrusted proxy",
		"event", "untrusted_proxy",
		"path", "/login",
	)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warning", entry["level"])
	assert.Equal(t, "forwarding header received from untrusted proxy", entry["msg"])
	assert.Equal(t, "untrusted_proxy", entry["event"])
	assert.Equal(t, "/login", entry["path"])

	require.NotNil(t, hooked)
	assert.Equal(t, "trace-1", hooked.Value(traceKey{}))
}

func TestResolverLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := newLogger(&buf, "error", "text")
	require.NoError(t, err)

	resolverLogger{l: l}.WarnContext(context.Background(), "suppressed")
	assert.Empty(t, buf.String())
}

func TestFieldsFromArgs(t *testing.T) {
	fields := fieldsFromArgs([]any{"a", 1, 2, "b", "dangling"})

	assert.Equal(t, logrus.Fields{
		"a":       1,
		"2":       "b",
		"!BADKEY": "dangling",
	}, fields)
}

type contextHook func(ctx context.Context)

func (contextHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h contextHook) Fire(e *logrus.Entry) error {
	h(e.Context)
	return nil
}
