package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hatlonely/modelorm/log/writer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSLogWithOptions(t *testing.T) {
	tests := []struct {
		name    string
		options *SLogOptions
		wantErr bool
	}{
		{name: "nil options", options: nil, wantErr: true},
		{name: "default console output", options: &SLogOptions{Level: "info"}},
		{name: "stdout json", options: &SLogOptions{
			Level:  "debug",
			Format: "json",
			Output: &writer.Options{Type: "console", Console: &writer.ConsoleWriterOptions{Target: "stdout"}},
		}},
		{name: "invalid level", options: &SLogOptions{Level: "invalid"}, wantErr: true},
		{name: "invalid format", options: &SLogOptions{Format: "xml"}, wantErr: true},
		{name: "invalid writer", options: &SLogOptions{Output: &writer.Options{Type: "kafka"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewSLogWithOptions(tt.options)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, l.Close())
		})
	}
}

func TestSLog_Level(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewSLog(&buf, &SLogOptions{Level: "warn"})
	require.NoError(t, err)

	l.Info("generated table", "table", "orm_users")
	l.Warn("unsupported index", "field", "tags")
	out := buf.String()
	assert.NotContains(t, out, "generated table")
	assert.Contains(t, out, "unsupported index")
	assert.Contains(t, out, "field=tags")
}

func TestSLog_JSONWith(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewSLog(&buf, &SLogOptions{Format: "json"})
	require.NoError(t, err)

	l.With("model", "User").WithGroup("table").Info("emitted", "name", "orm_users")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "emitted", entry["msg"])
	assert.Equal(t, "User", entry["model"])
	assert.Equal(t, map[string]any{"name": "orm_users"}, entry["table"])
}

func TestSLog_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "modelorm.log")
	l, err := NewSLogWithOptions(&SLogOptions{
		Output: &writer.Options{Type: "file", File: &writer.FileWriterOptions{Path: path}},
		Fields: map[string]any{"app": "modelorm"},
	})
	require.NoError(t, err)

	l.Info("migrated", "tables", 2)
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))
	assert.Contains(t, line, "msg=migrated")
	assert.Contains(t, line, "app=modelorm")
	assert.Contains(t, line, "tables=2")
}

func TestNewDiscard(t *testing.T) {
	l := NewDiscard()
	l.Error("ignored")
	assert.NoError(t, l.Close())
}
