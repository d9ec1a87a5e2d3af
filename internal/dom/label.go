package dom

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Document is the page-side half of the labeling pass.
type Document interface {
	// ClearLabels removes every label left by a previous pass.
	ClearLabels(ctx context.Context) error
	// MarkCandidates outlines every element matching selector, tags it with its
	// index and returns the candidates with their geometry and style chain.
	MarkCandidates(ctx context.Context, selector string) (*Frame, error)
	// SetLabels writes the given labels onto the page.
	SetLabels(ctx context.Context, labels []Label) error
}

// Labeler runs labeling passes over a Document.
type Labeler struct {
	logger  *zap.Logger
	minSize float64
	workers int
}

// NewLabeler returns a Labeler that labels elements larger than minSize in both
// dimensions, classifying with up to workers goroutines.
func NewLabeler(logger *zap.Logger, minSize float64, workers int) *Labeler {
	if workers <= 0 {
		workers = 1
	}
	return &Labeler{
		logger:  logger.Named("labeler"),
		minSize: minSize,
		workers: workers,
	}
}

// Label performs a full labeling pass and returns the labeled elements in
// document order. Every label has been written to the page by the time it
// returns, so a snapshot taken afterwards shows the complete set.
func (l *Labeler) Label(ctx context.Context, doc Document) ([]Element, error) {
	if err := doc.ClearLabels(ctx); err != nil {
		return nil, fmt.Errorf("clearing labels: %w", err)
	}

	frame, err := doc.MarkCandidates(ctx, CandidateSelector)
	if err != nil {
		return nil, fmt.Errorf("marking candidates: %w", err)
	}

	elements := make([]Element, len(frame.Elements))
	copy(elements, frame.Elements)

	qualified := make([]bool, len(elements))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i := range elements {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			el := &elements[i]
			el.Label = ""
			if l.qualifies(el, frame.Viewport) {
				qualified[i] = true
				el.Label = Sanitize(el.Text)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	labeled := make([]Element, 0, len(elements))
	labels := make([]Label, 0, len(elements))
	for i, el := range elements {
		if !qualified[i] {
			continue
		}
		labels = append(labels, Label{Index: el.Index, Text: el.Label})
		if el.Labeled() {
			labeled = append(labeled, el)
		}
	}

	if err := doc.SetLabels(ctx, labels); err != nil {
		return nil, fmt.Errorf("writing labels: %w", err)
	}

	l.logger.Debug("Labeling pass complete",
		zap.Int("candidates", len(elements)),
		zap.Int("labeled", len(labeled)),
	)
	return labeled, nil
}

func (l *Labeler) qualifies(el *Element, vp Viewport) bool {
	return el.Rect.Width > l.minSize && el.Rect.Height > l.minSize && IsVisible(el, vp)
}
