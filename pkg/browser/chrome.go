package browser

import (
	"os/exec"
	"path/filepath"

	"github.com/jmylchreest/expatscrape/internal/logger"
)

// Common Chrome/Chromium binary names across different systems
var chromeBinaryNames = []string{
	"google-chrome-stable",
	"google-chrome",
	"chromium",
	"chromium-browser",
	"chrome",
	"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	"/Applications/Chromium.app/Contents/MacOS/Chromium",
	"/usr/bin/google-chrome-stable",
	"/usr/bin/chromium",
	"/snap/bin/chromium",
	`C:\Program Files\Google\Chrome\Application\chrome.exe`,
	`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
}

// FindChromePath returns the first executable among candidates, or among the
// well-known names when no candidates are given. Returns "" if none is found.
func FindChromePath(candidates ...string) string {
	if len(candidates) == 0 {
		candidates = chromeBinaryNames
	}
	for _, name := range candidates {
		if name == "" {
			continue
		}
		// LookPath searches PATH for bare names and checks absolute paths directly.
		if path, err := exec.LookPath(name); err == nil {
			if abs, err := filepath.Abs(path); err == nil {
				path = abs
			}
			logger.Debug("found Chrome binary", "name", name, "path", path)
			return path
		}
	}
	logger.Warn("no Chrome binary found", "candidates", len(candidates))
	return ""
}
