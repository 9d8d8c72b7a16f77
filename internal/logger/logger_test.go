package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSinkRecordsDebugWhileConsoleStaysQuiet(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "attempts.log")

	log, err := New(false, logFile)
	require.NoError(t, err)

	var console bytes.Buffer
	// Swap the console sink's writer so the test can observe it.
	for _, hooks := range log.Hooks {
		for _, h := range hooks {
			if wh, ok := h.(*writerHook); ok && wh.w == os.Stdout {
				wh.w = &console
			}
		}
	}

	log.Debug("detail only for the file")
	log.Info("visible everywhere")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "detail only for the file")
	assert.Contains(t, string(data), "visible everywhere")

	assert.NotContains(t, console.String(), "detail only for the file")
	assert.Contains(t, console.String(), "visible everywhere")
}

func TestVerboseConsoleIncludesDebug(t *testing.T) {
	log, err := New(true, "")
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	var console bytes.Buffer
	for _, hooks := range log.Hooks {
		for _, h := range hooks {
			if wh, ok := h.(*writerHook); ok {
				wh.w = &console
			}
		}
	}

	log.Debug("debug line")
	assert.Contains(t, console.String(), "debug line")
}

func TestFileLogAppends(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "attempts.log")

	first, err := New(false, logFile)
	require.NoError(t, err)
	first.Info("run one")

	second, err := New(false, logFile)
	require.NoError(t, err)
	second.Info("run two")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "run one")
	assert.Contains(t, string(data), "run two")
}

func TestLevelsUpTo(t *testing.T) {
	info := levelsUpTo(logrus.InfoLevel)
	assert.Contains(t, info, logrus.InfoLevel)
	assert.Contains(t, info, logrus.ErrorLevel)
	assert.NotContains(t, info, logrus.DebugLevel)

	debug := levelsUpTo(logrus.DebugLevel)
	assert.Contains(t, debug, logrus.DebugLevel)
}
