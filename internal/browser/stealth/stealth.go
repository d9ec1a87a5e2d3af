package stealth

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

//go:embed evasions.js
var evasionsScript string

// Persona defines the browser characteristics to emulate.
type Persona struct {
	UserAgent string   `json:"userAgent"`
	Platform  string   `json:"platform"`
	Languages []string `json:"languages"`
	Timezone  string   `json:"timezone"`
	Locale    string   `json:"locale"`
}

// DefaultPersona is a desktop Chrome on Windows profile.
var DefaultPersona = Persona{
	UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/138.0.0.0 Safari/537.36",
	Platform:  "Win32",
	Languages: []string{"en-US", "en"},
	Timezone:  "America/New_York",
	Locale:    "en-US",
}

// AcceptLanguage renders the persona's languages as an Accept-Language header
// with descending quality values.
func (p Persona) AcceptLanguage() string {
	if len(p.Languages) == 0 {
		return ""
	}
	parts := []string{p.Languages[0]}
	for i, lang := range p.Languages[1:] {
		q := 0.9 - float64(i)*0.1
		if q < 0.5 {
			q = 0.5
		}
		parts = append(parts, fmt.Sprintf("%s;q=%.1f", lang, q))
	}
	return strings.Join(parts, ",")
}

// Script returns the evasion script with the persona bound into it.
func (p Persona) Script() (string, error) {
	data, err := jsoniter.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("stealth: failed to marshal persona: %w", err)
	}
	return "const __VC_PERSONA = " + string(data) + ";\n" + evasionsScript, nil
}

// Apply returns the CDP actions that make the tab look like a user-operated
// browser. It must run before the first navigation.
func Apply(p Persona, logger *zap.Logger) chromedp.Tasks {
	logger.Debug("Applying browser stealth persona",
		zap.String("userAgent", p.UserAgent),
		zap.String("platform", p.Platform),
	)

	tasks := chromedp.Tasks{
		emulation.SetUserAgentOverride(p.UserAgent).
			WithPlatform(p.Platform).
			WithAcceptLanguage(strings.Join(p.Languages, ",")),

		// AddScriptToEvaluateOnNewDocument returns an identifier besides the
		// error, so it needs an ActionFunc wrapper.
		chromedp.ActionFunc(func(ctx context.Context) error {
			script, err := p.Script()
			if err != nil {
				return err
			}
			if _, err := page.AddScriptToEvaluateOnNewDocument(script).Do(ctx); err != nil {
				return fmt.Errorf("stealth: failed to inject evasions script: %w", err)
			}
			return nil
		}),
	}

	if p.Timezone != "" {
		tasks = append(tasks, emulation.SetTimezoneOverride(p.Timezone))
	}
	if p.Locale != "" {
		tasks = append(tasks, emulation.SetLocaleOverride().WithLocale(p.Locale))
	}
	if header := p.AcceptLanguage(); header != "" {
		tasks = append(tasks,
			network.Enable(),
			network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": header}),
		)
	}
	return tasks
}
