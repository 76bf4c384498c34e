package logging

import (
	"path/filepath"
	"strings"
	"time"
)

// LogFilePath names the log file of one viewing session, e.g.
// logs/theater.final.20260212_213836.log. The replay part is left out when
// replayID is empty.
func LogFilePath(logsDir, appName, replayID string, sessionStart time.Time) string {
	parts := []string{appName}
	if id := fileSafe(replayID); id != "" {
		parts = append(parts, id)
	}
	parts = append(parts, sessionStart.Format("20060102_150405"), "log")
	return filepath.Join(logsDir, strings.Join(parts, "."))
}

func fileSafe(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(s))
}
