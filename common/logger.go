package common

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/sirupsen/logrus"
)

// InitLogger configures the standard logrus logger. Output goes to stderr and,
// when logDir is non-empty, also to a daily-rotated file kept for seven days.
func InitLogger(level, logDir string) error {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		PadLevelText:    true,
	})

	var out io.Writer = os.Stderr
	if logDir != "" {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return fmt.Errorf("failed to create log dir: %w", err)
		}
		writer, err := rotatelogs.New(
			filepath.Join(logDir, "repolookup_%Y%m%d.log"),
			rotatelogs.WithMaxAge(7*24*time.Hour),
			rotatelogs.WithRotationTime(24*time.Hour),
			rotatelogs.WithLinkName(filepath.Join(logDir, "repolookup_latest.log")),
		)
		if err != nil {
			return fmt.Errorf("failed to open rotating log: %w", err)
		}
		out = io.MultiWriter(os.Stderr, writer)
	}
	logrus.SetOutput(out)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)

	logrus.WithFields(logrus.Fields{
		"level":   lvl.String(),
		"log_dir": logDir,
	}).Debug("logger initialised")
	return nil
}
