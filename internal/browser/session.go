package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Ubayed-Bin-Sufian/gpt4v-browsing/internal/browser/stealth"
	"github.com/Ubayed-Bin-Sufian/gpt4v-browsing/internal/config"
	"github.com/Ubayed-Bin-Sufian/gpt4v-browsing/internal/dom"
)

// ErrNavigation is returned when the browser reports a failed navigation.
var ErrNavigation = errors.New("navigation failed")

// Session is a single browser tab driven over CDP.
type Session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger
	cfg    config.BrowserConfig

	loadCh chan struct{}
	domCh  chan struct{}

	closeOnce sync.Once
	onClose   func()
}

func newSession(tabCtx context.Context, cancel context.CancelFunc, cfg config.BrowserConfig, logger *zap.Logger) *Session {
	id := uuid.NewString()
	s := &Session{
		id:     id,
		ctx:    tabCtx,
		cancel: cancel,
		logger: logger.Named("session").With(zap.String("session_id", id)),
		cfg:    cfg,
		loadCh: make(chan struct{}, 1),
		domCh:  make(chan struct{}, 1),
	}

	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		switch ev.(type) {
		case *page.EventLoadEventFired:
			signal(s.loadCh)
		case *page.EventDomContentEventFired:
			signal(s.domCh)
		}
	})
	return s
}

// signal records an event without blocking the CDP event loop.
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func drain(ch chan struct{}) {
	select {
	case <-ch:
	default:
	}
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// setup attaches the tab and applies the viewport and stealth persona.
func (s *Session) setup(ctx context.Context, persona stealth.Persona) error {
	vp := s.cfg.Viewport
	tasks := chromedp.Tasks{
		emulation.SetDeviceMetricsOverride(int64(vp.Width), int64(vp.Height), vp.DeviceScaleFactor, false),
	}
	if s.cfg.Stealth {
		tasks = append(tasks, stealth.Apply(persona, s.logger))
	}
	return s.run(ctx, tasks)
}

func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := combineContext(s.ctx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

// Navigate loads url and returns once the DOM content is loaded. The load
// event is left for WaitForLoad.
func (s *Session) Navigate(ctx context.Context, url string) error {
	drain(s.loadCh)
	drain(s.domCh)

	navCtx, cancel := combineContext(s.ctx, ctx)
	defer cancel()
	if s.cfg.NavigationTimeout > 0 {
		var timeoutCancel context.CancelFunc
		navCtx, timeoutCancel = context.WithTimeout(navCtx, s.cfg.NavigationTimeout)
		defer timeoutCancel()
	}

	s.logger.Debug("Navigating", zap.String("url", url))
	var res page.NavigateReturns
	err := chromedp.Run(navCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		if err := cdp.Execute(ctx, page.CommandNavigate, page.Navigate(url), &res); err != nil {
			return err
		}
		if res.ErrorText != "" {
			return fmt.Errorf("%w: %s", ErrNavigation, res.ErrorText)
		}
		return nil
	}))
	if err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	// Same-document navigations have no loader and fire no DOM events.
	if res.LoaderID == "" {
		return nil
	}

	select {
	case <-s.domCh:
		return nil
	case <-navCtx.Done():
		return fmt.Errorf("waiting for DOM content at %s: %w", url, navCtx.Err())
	}
}

// WaitForLoad blocks until the page fires its load event or ctx ends.
func (s *Session) WaitForLoad(ctx context.Context) error {
	select {
	case <-s.loadCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ctx.Done():
		return s.ctx.Err()
	}
}

// ClearLabels implements dom.Document.
func (s *Session) ClearLabels(ctx context.Context) error {
	return s.run(ctx, chromedp.Evaluate(clearLabelsScript, nil))
}

// MarkCandidates implements dom.Document.
func (s *Session) MarkCandidates(ctx context.Context, selector string) (*dom.Frame, error) {
	script, err := buildMarkScript(selector)
	if err != nil {
		return nil, err
	}
	var raw string
	if err := s.run(ctx, chromedp.Evaluate(script, &raw)); err != nil {
		return nil, err
	}
	return decodeFrame(raw)
}

// SetLabels implements dom.Document.
func (s *Session) SetLabels(ctx context.Context, labels []dom.Label) error {
	script, err := buildSetLabelsScript(labels)
	if err != nil {
		return err
	}
	return s.run(ctx, chromedp.Evaluate(script, nil))
}

// LabeledElements returns the elements currently carrying a label on the page,
// in document order.
func (s *Session) LabeledElements(ctx context.Context) ([]dom.Element, error) {
	var raw string
	if err := s.run(ctx, chromedp.Evaluate(labeledElementsScript, &raw)); err != nil {
		return nil, err
	}
	return decodeLabeled(raw)
}

// Click clicks the candidate with the given index. A load event fired by the
// click is observable through WaitForLoad.
func (s *Session) Click(ctx context.Context, index int) error {
	drain(s.loadCh)

	sel := clickSelector(index)
	s.logger.Debug("Clicking element", zap.String("selector", sel))
	if err := s.run(ctx, chromedp.Click(sel, chromedp.ByQuery, chromedp.NodeVisible)); err != nil {
		return fmt.Errorf("clicking %s: %w", sel, err)
	}
	return nil
}

// CaptureJPEG implements snapshot.Camera, capturing the visible viewport.
func (s *Session) CaptureJPEG(ctx context.Context, quality int) ([]byte, error) {
	var buf []byte
	err := s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, err = page.CaptureScreenshot().
			WithFormat(page.CaptureScreenshotFormatJpeg).
			WithQuality(int64(quality)).
			Do(ctx)
		return err
	}))
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Close closes the tab.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		if s.onClose != nil {
			s.onClose()
		}
		s.logger.Debug("Session closed")
	})
	return nil
}
