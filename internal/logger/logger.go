// Package logger builds the logrus instance shared by the hunter
// components. The logger is passed explicitly; there is no package
// global.
package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a logger with two sinks: the console, whose level is
// Info (or Debug when verbose is set), and an append-only file that
// always records at Debug with colors disabled. The logger itself runs
// at Debug and each sink filters by level, so the file stays detailed
// regardless of console verbosity.
func New(verbose bool, logFile string) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	log.SetLevel(logrus.DebugLevel)

	consoleLevel := logrus.InfoLevel
	if verbose {
		consoleLevel = logrus.DebugLevel
	}
	log.AddHook(&writerHook{
		w:         os.Stdout,
		levels:    levelsUpTo(consoleLevel),
		formatter: &logrus.TextFormatter{DisableTimestamp: true},
	})

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("error opening log file %s: %w", logFile, err)
		}
		log.AddHook(&writerHook{
			w:      f,
			levels: logrus.AllLevels,
			formatter: &logrus.TextFormatter{
				DisableColors: true,
				FullTimestamp: true,
			},
		})
	}

	return log, nil
}

// writerHook sends entries at or above a level to one writer with its
// own formatter.
type writerHook struct {
	w         io.Writer
	levels    []logrus.Level
	formatter logrus.Formatter
}

func (h *writerHook) Levels() []logrus.Level {
	return h.levels
}

func (h *writerHook) Fire(entry *logrus.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	_, err = h.w.Write(line)
	return err
}

func levelsUpTo(level logrus.Level) []logrus.Level {
	var levels []logrus.Level
	for _, l := range logrus.AllLevels {
		if l <= level {
			levels = append(levels, l)
		}
	}
	return levels
}
