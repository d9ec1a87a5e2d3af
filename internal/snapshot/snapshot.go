// Package snapshot captures the labeled viewport into the single image artifact
// that is shown to the model.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/Ubayed-Bin-Sufian/gpt4v-browsing/api/schemas"
)

// MIMEType is the media type of every artifact.
const MIMEType = "image/jpeg"

// ErrArtifactIO marks failures to write or read back the artifact file.
var ErrArtifactIO = errors.New("snapshot artifact i/o failed")

// Camera captures the current viewport as JPEG bytes.
type Camera interface {
	CaptureJPEG(ctx context.Context, quality int) ([]byte, error)
}

// Artifact is the captured snapshot as persisted on disk.
type Artifact struct {
	Path  string
	Image schemas.Image
}

// DataURI returns the artifact encoded for inline transport to the model.
func (a *Artifact) DataURI() string {
	return a.Image.DataURI()
}

// Producer writes snapshots to one fixed path, overwriting the previous one.
type Producer struct {
	fs      afero.Fs
	path    string
	quality int
	logger  *zap.Logger
}

// NewProducer creates a Producer. Pass afero.NewOsFs() in production.
func NewProducer(fs afero.Fs, path string, quality int, logger *zap.Logger) *Producer {
	return &Producer{
		fs:      fs,
		path:    path,
		quality: quality,
		logger:  logger.Named("snapshot"),
	}
}

// Path returns the artifact location.
func (p *Producer) Path() string { return p.path }

// Capture takes a viewport capture, persists it and returns the bytes read
// back from disk. It must run after the labeling pass has completed.
func (p *Producer) Capture(ctx context.Context, cam Camera) (*Artifact, error) {
	data, err := cam.CaptureJPEG(ctx, p.quality)
	if err != nil {
		return nil, fmt.Errorf("capturing viewport: %w", err)
	}

	if dir := filepath.Dir(p.path); dir != "." && dir != "" {
		if err := p.fs.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: creating %s: %w", ErrArtifactIO, dir, err)
		}
	}
	if err := afero.WriteFile(p.fs, p.path, data, 0o644); err != nil {
		return nil, fmt.Errorf("%w: writing %s: %w", ErrArtifactIO, p.path, err)
	}

	stored, err := afero.ReadFile(p.fs, p.path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrArtifactIO, p.path, err)
	}

	p.logger.Debug("Snapshot written", zap.String("path", p.path), zap.Int("bytes", len(stored)))
	return &Artifact{
		Path:  p.path,
		Image: schemas.Image{MIMEType: MIMEType, Data: stored},
	}, nil
}
