package browser

import (
	"runtime"
	"sort"
	"strings"

	"github.com/chromedp/chromedp"

	"github.com/Ubayed-Bin-Sufian/gpt4v-browsing/internal/config"
)

// allocatorFlags computes the command line switches layered on top of
// chromedp's defaults. A false value removes a switch set by the defaults.
func allocatorFlags(cfg config.BrowserConfig) map[string]interface{} {
	flags := map[string]interface{}{
		// chromedp enables this by default. It shows an infobar and sets
		// navigator.webdriver.
		"enable-automation":         false,
		"disable-blink-features":    "AutomationControlled",
		"disable-extensions":        true,
		"disable-gpu":               true,
		"headless":                  cfg.Headless,
		"hide-scrollbars":           cfg.Headless,
		"ignore-certificate-errors": cfg.IgnoreTLSErrors,
	}

	if runtime.GOOS == "linux" {
		flags["no-sandbox"] = true
	}

	for _, arg := range cfg.Args {
		key, value := parseArg(arg)
		if key == "" {
			continue
		}
		flags[key] = value
	}
	return flags
}

// parseArg splits a "--key=value" or "--key" switch. A bare switch maps to true.
func parseArg(arg string) (string, interface{}) {
	arg = strings.TrimLeft(strings.TrimSpace(arg), "-")
	if arg == "" {
		return "", nil
	}
	if key, value, ok := strings.Cut(arg, "="); ok {
		return key, value
	}
	return arg, true
}

// allocatorOptions returns the exec allocator options for cfg.
func allocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := make([]chromedp.ExecAllocatorOption, 0, len(chromedp.DefaultExecAllocatorOptions)+16)
	opts = append(opts, chromedp.DefaultExecAllocatorOptions[:]...)

	flags := allocatorFlags(cfg)
	keys := make([]string, 0, len(flags))
	for k := range flags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		opts = append(opts, chromedp.Flag(k, flags[k]))
	}

	opts = append(opts, chromedp.WindowSize(cfg.Viewport.Width, cfg.Viewport.Height))
	return opts
}
