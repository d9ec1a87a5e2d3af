// Package agent runs the chat-driven browsing loop: it relays the user's
// questions to a vision model, carries out the page actions the model asks for
// and feeds annotated snapshots back until the model answers in prose.
package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/Ubayed-Bin-Sufian/gpt4v-browsing/api/schemas"
	"github.com/Ubayed-Bin-Sufian/gpt4v-browsing/internal/config"
	"github.com/Ubayed-Bin-Sufian/gpt4v-browsing/internal/console"
	"github.com/Ubayed-Bin-Sufian/gpt4v-browsing/internal/dom"
	"github.com/Ubayed-Bin-Sufian/gpt4v-browsing/internal/snapshot"
)

// Page is the browser tab the navigator drives.
type Page interface {
	dom.Document
	snapshot.Camera

	// Navigate loads url and returns once its DOM content has loaded.
	Navigate(ctx context.Context, url string) error
	// WaitForLoad blocks until the load event fires. A load observed since the
	// last Navigate or Click satisfies it immediately.
	WaitForLoad(ctx context.Context) error
	// LabeledElements lists the elements currently carrying a label.
	LabeledElements(ctx context.Context) ([]dom.Element, error)
	// Click clicks the candidate with the given index.
	Click(ctx context.Context, index int) error
}

// Console is the user's side of the chat.
type Console interface {
	ReadLine(ctx context.Context, speaker string) (string, error)
	WriteLine(speaker, text string)
	Status(text string)
	Error(text string)
}

// Dependencies are the collaborators a Navigator drives.
type Dependencies struct {
	Page      Page
	Labeler   *dom.Labeler
	Snapshots *snapshot.Producer
	LLM       schemas.LLMClient
	Console   Console
	// Parser defaults to MarkerParser.
	Parser Parser
	// Tokens is optional. When set and debug logging is on, each model turn logs
	// a transcript size estimate.
	Tokens TokenEstimator
}

// TokenEstimator estimates the prompt size of a transcript.
// conversation.TokenCounter implements it.
type TokenEstimator interface {
	Count(turns []schemas.Turn) int
}

// Navigator owns the page and the conversation for one chat.
type Navigator struct {
	cfg     config.NavigatorConfig
	genOpts schemas.GenerationOptions
	deps    Dependencies
	logger  *zap.Logger

	exitWords     map[string]struct{}
	initialPrompt string
}

// Option configures a Navigator.
type Option func(*Navigator)

// WithInitialPrompt answers the first user prompt with q instead of reading it.
func WithInitialPrompt(q string) Option {
	return func(n *Navigator) {
		n.initialPrompt = q
	}
}

// NewNavigator wires a Navigator. Page, Labeler, Snapshots, LLM and Console are required.
func NewNavigator(cfg config.NavigatorConfig, genOpts schemas.GenerationOptions, deps Dependencies, logger *zap.Logger, opts ...Option) (*Navigator, error) {
	switch {
	case deps.Page == nil:
		return nil, errors.New("agent: page is required")
	case deps.Labeler == nil:
		return nil, errors.New("agent: labeler is required")
	case deps.Snapshots == nil:
		return nil, errors.New("agent: snapshot producer is required")
	case deps.LLM == nil:
		return nil, errors.New("agent: llm client is required")
	case deps.Console == nil:
		return nil, errors.New("agent: console is required")
	}
	if deps.Parser == nil {
		deps.Parser = MarkerParser{}
	}

	n := &Navigator{
		cfg:       cfg,
		genOpts:   genOpts,
		deps:      deps,
		logger:    logger.Named("navigator"),
		exitWords: make(map[string]struct{}, len(cfg.ExitWords)),
	}
	for _, w := range cfg.ExitWords {
		n.exitWords[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Run drives sess until the user leaves, ctx is canceled or an unrecoverable
// error occurs. Leaving the chat returns nil.
func (n *Navigator) Run(ctx context.Context, sess *Session) error {
	logger := n.logger.With(zap.String("session_id", sess.ID))
	logger.Info("Navigation loop started")

	n.deps.Console.WriteLine(console.SpeakerModel, Greeting)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var err error
		switch sess.State {
		case StateAwaitingUserInput:
			err = n.awaitUser(ctx, sess)
		case StateNavigating:
			err = n.navigate(ctx, sess, logger)
		case StateAwaitingModel:
			err = n.modelTurn(ctx, sess, logger)
		case StateClickHandling:
			err = n.click(ctx, sess, logger)
		case StateNavigateHandling:
			sess.PendingURL = sess.LastAction.URL
			sess.State = StateNavigating
		case StateDone:
			sess.State = StateAwaitingUserInput
		default:
			err = fmt.Errorf("agent: unknown state %q", sess.State)
		}

		if errors.Is(err, ErrInputClosed) {
			logger.Info("User ended the session", zap.Int("turns", sess.Conversation.Len()))
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (n *Navigator) awaitUser(ctx context.Context, sess *Session) error {
	var line string
	if n.initialPrompt != "" {
		line, n.initialPrompt = n.initialPrompt, ""
		n.deps.Console.WriteLine(console.SpeakerUser, line)
	} else {
		var err error
		line, err = n.deps.Console.ReadLine(ctx, console.SpeakerUser)
		if errors.Is(err, io.EOF) {
			return ErrInputClosed
		}
		if err != nil {
			return err
		}
	}

	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil
	}
	if _, ok := n.exitWords[strings.ToLower(trimmed)]; ok {
		return ErrInputClosed
	}

	sess.Conversation.AppendUser(line)
	sess.State = StateAwaitingModel
	return nil
}

func (n *Navigator) navigate(ctx context.Context, sess *Session, logger *zap.Logger) error {
	url := sess.PendingURL
	sess.PendingURL = ""
	n.deps.Console.Status("Crawling " + url)

	if err := n.deps.Page.Navigate(ctx, url); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("Navigation failed", zap.String("url", url), zap.Error(err))
		sess.Conversation.AppendObservation(fmt.Sprintf(navigateFailedFormat, url))
		sess.State = StateAwaitingModel
		return nil
	}

	// The first pass labels what is already rendered. The second picks up
	// whatever arrived with the load event.
	n.label(ctx, logger)
	if err := n.waitForLoad(ctx, logger); err != nil {
		return err
	}
	n.label(ctx, logger)

	if err := n.capture(ctx, sess); err != nil {
		return err
	}
	sess.State = StateAwaitingModel
	return nil
}

func (n *Navigator) modelTurn(ctx context.Context, sess *Session, logger *zap.Logger) error {
	conv := sess.Conversation
	if sess.SnapshotPending && sess.Snapshot != nil {
		conv.AppendImage(sess.Snapshot.Image, ScreenshotCaption)
		sess.SnapshotPending = false
	}

	if n.deps.Tokens != nil && logger.Core().Enabled(zap.DebugLevel) {
		logger.Debug("Sending conversation to model",
			zap.Int("turns", conv.Len()),
			zap.Int("estimated_tokens", n.deps.Tokens.Count(conv.Turns())),
		)
	}

	reply, err := n.deps.LLM.Generate(ctx, conv.Request(n.genOpts))
	if err != nil {
		return fmt.Errorf("model turn failed: %w", err)
	}
	conv.AppendAssistant(reply)
	n.deps.Console.WriteLine(console.SpeakerModel, reply)

	action := n.deps.Parser.Parse(reply)
	sess.LastAction = action
	logger.Debug("Parsed model reply", zap.String("action", string(action.Type)))

	switch action.Type {
	case ActionClick:
		sess.State = StateClickHandling
	case ActionNavigate:
		sess.State = StateNavigateHandling
	default:
		sess.State = StateDone
	}
	return nil
}

func (n *Navigator) click(ctx context.Context, sess *Session, logger *zap.Logger) error {
	label := sess.LastAction.Label
	n.deps.Console.Status("Clicking on " + label)

	if err := n.clickLabel(ctx, label); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("Click failed", zap.String("label", label), zap.Error(err))
		n.deps.Console.Error("Clicking failed")
		sess.Conversation.AppendObservation(clickFailedObservation)
		sess.State = StateAwaitingModel
		return nil
	}

	if err := n.waitForLoad(ctx, logger); err != nil {
		return err
	}
	n.label(ctx, logger)

	if err := n.capture(ctx, sess); err != nil {
		return err
	}
	sess.State = StateAwaitingModel
	return nil
}

func (n *Navigator) clickLabel(ctx context.Context, label string) error {
	elements, err := n.deps.Page.LabeledElements(ctx)
	if err != nil {
		return fmt.Errorf("listing labeled elements: %w", err)
	}
	target, err := dom.Resolve(elements, label)
	if err != nil {
		return err
	}

	clickCtx := ctx
	if n.cfg.ClickTimeout > 0 {
		var cancel context.CancelFunc
		clickCtx, cancel = context.WithTimeout(ctx, n.cfg.ClickTimeout)
		defer cancel()
	}
	return n.deps.Page.Click(clickCtx, target.Index)
}

// waitForLoad races the page's load event against the load timeout. Losing
// the race is not an error.
func (n *Navigator) waitForLoad(ctx context.Context, logger *zap.Logger) error {
	loadCtx, cancel := context.WithTimeout(ctx, n.cfg.LoadTimeout)
	defer cancel()

	if err := n.deps.Page.WaitForLoad(loadCtx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Debug("Load event not observed before timeout",
			zap.Duration("timeout", n.cfg.LoadTimeout),
			zap.Error(err),
		)
	}
	return nil
}

// label runs a labeling pass. Failures leave the page as it is and are only
// logged; the snapshot still goes to the model.
func (n *Navigator) label(ctx context.Context, logger *zap.Logger) {
	if _, err := n.deps.Labeler.Label(ctx, n.deps.Page); err != nil {
		logger.Warn("Labeling pass failed", zap.Error(err))
	}
}

func (n *Navigator) capture(ctx context.Context, sess *Session) error {
	artifact, err := n.deps.Snapshots.Capture(ctx, n.deps.Page)
	if err != nil {
		return fmt.Errorf("capturing snapshot: %w", err)
	}
	sess.Snapshot = artifact
	sess.SnapshotPending = true
	return nil
}
