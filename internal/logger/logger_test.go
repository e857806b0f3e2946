package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelAndFallback(t *testing.T) {
	log, _, err := New(Config{Level: "debug"})
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	log, _, err = New(Config{Level: "nonsense"})
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log, _, err := newWithStdout(Config{Level: "info", Format: "json"}, &buf)
	require.NoError(t, err)

	log.WithField("customer", 1).Info("customer buying")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "customer buying", line["msg"])
	assert.Equal(t, float64(1), line["customer"])
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "service.log")
	var buf bytes.Buffer
	log, closer, err := newWithStdout(Config{Level: "info", OutputFile: path, MaxSize: 1}, &buf)
	require.NoError(t, err)

	log.Info("hello")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
	assert.Contains(t, buf.String(), "hello")
}
