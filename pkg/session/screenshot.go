package session

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

// TimestampLayout is appended to saved screenshot and report names.
const TimestampLayout = "20060102_150405"

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeName makes name safe to use as a file name component.
func SanitizeName(name string) string {
	s := unsafeName.ReplaceAllString(name, "_")
	if s == "" {
		s = "screenshot"
	}
	return s
}

// SaveScreenshot decodes a base64 PNG into dir/<name>_<timestamp>.png and
// returns the written path.
func SaveScreenshot(dir, name, data string) (string, error) {
	return saveScreenshotAt(dir, name, data, time.Now())
}

func saveScreenshotAt(dir, name, data string, now time.Time) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", fmt.Errorf("decode screenshot: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create screenshot dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.png", SanitizeName(name), now.Format(TimestampLayout)))
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("write screenshot: %w", err)
	}
	return path, nil
}
