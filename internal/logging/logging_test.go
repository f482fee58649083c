package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := New("debug", "json", &buf)
	require.NoError(t, err)

	l.WithPath("cube.fld").LogStage("threshold", "structured-volume", "structured-volume", nil)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "stage applied", entry["msg"])
	assert.Equal(t, "cube.fld", entry["path"])
	assert.Equal(t, "threshold", entry["stage"])
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l, err := New("warn", "text", &buf)
	require.NoError(t, err)

	l.LogStage("outline", "polygon", "line", nil)
	assert.Empty(t, buf.String())

	l.LogStage("outline", "image", "", errors.New("not spatial"))
	assert.Contains(t, buf.String(), "stage failed")
	assert.Contains(t, buf.String(), "not spatial")
}

func TestNewRejectsUnknown(t *testing.T) {
	_, err := New("loud", "text", nil)
	require.Error(t, err)
	_, err = New("info", "yaml", nil)
	require.Error(t, err)
}

func TestNoop(t *testing.T) {
	l := Noop()
	l.LogRender("polygon", "polygon", true, nil)
	assert.False(t, l.Enabled(context.Background(), 0))
}
