package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_TextRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("warn", "text", &buf)
	require.NoError(t, err)

	log.Info("hidden")
	log.Warn("shown", "ttl", 42)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "ttl=42")
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("DEBUG", "json", &buf)
	require.NoError(t, err)

	log.DebugContext(context.Background(), "dbg", "path", "abc")

	var line map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &line))
	assert.Equal(t, "DEBUG", line["level"])
	assert.Equal(t, "abc", line["path"])
}

func TestNew_RejectsUnknownValues(t *testing.T) {
	_, err := New("loud", "text", &bytes.Buffer{})
	assert.Error(t, err)

	_, err = New("info", "xml", &bytes.Buffer{})
	assert.Error(t, err)
}
