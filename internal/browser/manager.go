// Package browser drives a Chromium instance over the DevTools protocol and
// exposes tabs as sessions the navigation loop can label, click and capture.
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/Ubayed-Bin-Sufian/gpt4v-browsing/internal/browser/stealth"
	"github.com/Ubayed-Bin-Sufian/gpt4v-browsing/internal/config"
)

const shutdownGracePeriod = 15 * time.Second

// Manager owns the browser process and hands out sessions.
type Manager struct {
	logger  *zap.Logger
	cfg     config.BrowserConfig
	persona stealth.Persona

	allocatorCtx    context.Context
	allocatorCancel context.CancelFunc
	browserCtx      context.Context
	browserCancel   context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*Session
	wg       sync.WaitGroup
}

// NewManager launches the browser and verifies it is responsive. The browser
// lives until Shutdown is called, independent of ctx.
func NewManager(ctx context.Context, logger *zap.Logger, cfg config.BrowserConfig) (*Manager, error) {
	m := &Manager{
		logger:   logger.Named("browser_manager"),
		cfg:      cfg,
		persona:  stealth.DefaultPersona,
		sessions: make(map[string]*Session),
	}

	m.allocatorCtx, m.allocatorCancel = chromedp.NewExecAllocator(context.Background(), allocatorOptions(cfg)...)
	m.browserCtx, m.browserCancel = chromedp.NewContext(m.allocatorCtx, m.contextOptions()...)

	launchCtx, cancel := combineContext(m.browserCtx, ctx)
	defer cancel()
	if cfg.LaunchTimeout > 0 {
		var timeoutCancel context.CancelFunc
		launchCtx, timeoutCancel = context.WithTimeout(launchCtx, cfg.LaunchTimeout)
		defer timeoutCancel()
	}

	// The first Run starts the process. Keeping this tab open keeps the browser alive.
	if err := chromedp.Run(launchCtx, chromedp.Navigate("about:blank")); err != nil {
		m.browserCancel()
		m.allocatorCancel()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	m.logger.Info("Browser launched",
		zap.Bool("headless", cfg.Headless),
		zap.Bool("stealth", cfg.Stealth),
	)
	return m, nil
}

func (m *Manager) contextOptions() []chromedp.ContextOption {
	opts := []chromedp.ContextOption{
		chromedp.WithLogf(m.logger.Sugar().Infof),
		chromedp.WithErrorf(m.logger.Sugar().Errorf),
	}
	if m.cfg.Debug {
		opts = append(opts, chromedp.WithDebugf(m.logger.Sugar().Debugf))
	}
	return opts
}

// NewSession opens a new tab with the configured viewport and persona.
func (m *Manager) NewSession(ctx context.Context) (*Session, error) {
	tabCtx, tabCancel := chromedp.NewContext(m.browserCtx)
	s := newSession(tabCtx, tabCancel, m.cfg, m.logger)

	if err := s.setup(ctx, m.persona); err != nil {
		tabCancel()
		return nil, fmt.Errorf("failed to initialize session: %w", err)
	}

	m.wg.Add(1)
	s.onClose = func() {
		m.mu.Lock()
		delete(m.sessions, s.ID())
		m.mu.Unlock()
		m.wg.Done()
	}

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()

	m.logger.Info("New session created", zap.String("session_id", s.ID()))
	return s, nil
}

// Shutdown closes every open session and terminates the browser process.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	open := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		open = append(open, s)
	}
	m.mu.Unlock()

	for _, s := range open {
		_ = s.Close()
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	waitCtx, cancel := context.WithTimeout(ctx, shutdownGracePeriod)
	defer cancel()
	select {
	case <-done:
	case <-waitCtx.Done():
		m.logger.Warn("Timed out waiting for sessions to close", zap.Error(waitCtx.Err()))
	}

	// chromedp.Cancel closes the browser gracefully and waits for the process.
	errCh := make(chan error, 1)
	go func() { errCh <- chromedp.Cancel(m.browserCtx) }()

	var err error
	select {
	case err = <-errCh:
	case <-waitCtx.Done():
		err = waitCtx.Err()
	}
	m.browserCancel()
	m.allocatorCancel()

	if err != nil {
		m.logger.Warn("Browser did not shut down cleanly", zap.Error(err))
		return fmt.Errorf("shutting down browser: %w", err)
	}
	m.logger.Info("Browser shut down")
	return nil
}
