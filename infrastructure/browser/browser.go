package browser

import (
	"io"

	"omnipost/infrastructure/logger"

	pkgbrowser "github.com/pkg/browser"
)

// Launcher opens authorization URLs in the user's default browser.
// Failures are logged only; the URL is always returned to the caller as well.
type Launcher struct {
	enabled bool
	open    func(url string) error
}

func NewLauncher(enabled bool) *Launcher {
	// Keep xdg-open chatter out of the CLI output.
	pkgbrowser.Stdout = io.Discard
	pkgbrowser.Stderr = io.Discard
	return &Launcher{enabled: enabled, open: pkgbrowser.OpenURL}
}

func (l *Launcher) Open(url string) {
	if !l.enabled {
		logger.GetLogger().WithField("url", url).Info("Browser launch disabled, open the authorization URL manually")
		return
	}
	go func() {
		if err := l.open(url); err != nil {
			logger.GetLogger().WithField("error", err).WithField("url", url).Warn("Failed to open browser")
		}
	}()
}
