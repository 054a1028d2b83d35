package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigure(t *testing.T) {
	defer func() { _ = Configure("info", "console") }()

	require.NoError(t, Configure("debug", "json"))
	assert.Equal(t, logrus.DebugLevel, Logger.GetLevel())

	assert.Error(t, Configure("loud", "json"))
	assert.Error(t, Configure("info", "xml"))
}

func TestWithFields_JSON(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	defer func() { _ = Configure("info", "console") }()

	require.NoError(t, Configure("info", "json"))
	WithFields(logrus.Fields{"coins": 3, "total": "1.30"}).Info("counted")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "counted", entry["msg"])
	assert.Equal(t, float64(3), entry["coins"])
	assert.Equal(t, "1.30", entry["total"])
}
