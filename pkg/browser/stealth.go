package browser

import (
	"context"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/go-rod/stealth"
)

// localeScript aligns the navigator locale with a browser in Senegal and
// covers the few evasions stealth.JS leaves to the caller.
const localeScript = `
(function() {
    'use strict';

    Object.defineProperty(navigator, 'languages', {
        get: () => Object.freeze(['fr-FR', 'fr', 'en-US', 'en']),
        configurable: true
    });
    Object.defineProperty(navigator, 'language', {
        get: () => 'fr-FR',
        configurable: true
    });

    if (navigator.hardwareConcurrency === 0) {
        Object.defineProperty(navigator, 'hardwareConcurrency', {
            get: () => 4,
            configurable: true
        });
    }

    if (navigator.deviceMemory === undefined || navigator.deviceMemory === 0) {
        Object.defineProperty(navigator, 'deviceMemory', {
            get: () => 8,
            configurable: true
        });
    }
})();
`

// StealthScripts returns the evasion scripts installed when Config.Stealth
// is set.
func StealthScripts() []string {
	return []string{stealth.JS, localeScript}
}

// InitScripts returns the scripts a launch installs before any page script
// runs. Without Config.Stealth there are none.
func InitScripts(cfg Config) []string {
	if !cfg.Stealth {
		return nil
	}
	return StealthScripts()
}

// StealthFlags is the set of Chrome switches used by both browser backends.
// Values of "" denote a bare switch.
func StealthFlags() map[string]string {
	return map[string]string{
		"disable-gpu":                         "",
		"no-sandbox":                          "",
		"disable-dev-shm-usage":               "",
		"disable-blink-features":              "AutomationControlled",
		"disable-features":                    "IsolateOrigins,site-per-process",
		"excludeSwitches":                     "enable-automation",
		"disable-infobars":                    "",
		"disable-default-apps":                "",
		"disable-background-timer-throttling": "",
		"disable-renderer-backgrounding":      "",
		"lang":                                "fr-FR,fr",
		"accept-lang":                         "fr-FR,fr;q=0.9,en;q=0.8",
	}
}

// StealthExecAllocatorOptions returns chromedp allocator options for cfg.
func StealthExecAllocatorOptions(cfg Config) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("useAutomationExtension", false),
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
		chromedp.UserAgent(cfg.UserAgent),
	}
	for name, value := range StealthFlags() {
		if value == "" {
			opts = append(opts, chromedp.Flag(name, true))
		} else {
			opts = append(opts, chromedp.Flag(name, value))
		}
	}
	return opts
}

// InjectScripts returns a chromedp.Action that installs scripts before any
// page script runs. It must run before navigation.
func InjectScripts(scripts []string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		for _, src := range scripts {
			if _, err := page.AddScriptToEvaluateOnNewDocument(src).Do(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}
