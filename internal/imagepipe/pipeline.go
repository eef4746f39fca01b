package imagepipe

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/mykcryptodev/vrbs-vote-frame/internal/logging"
	"github.com/mykcryptodev/vrbs-vote-frame/internal/metrics"
)

// ErrNoUploader is returned when a data image needs hosting but no uploader
// is configured.
var ErrNoUploader = stderrors.New("image uploader not configured")

// Uploader hosts a file and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, name string, data []byte) (string, error)
}

// Config assembles a Pipeline. Only Optimizer is required.
type Config struct {
	Optimizer Optimizer
	Uploader  Uploader
	Cache     Cache
	CacheTTL  time.Duration
	Logger    *logging.Logger
}

// Pipeline converts SVG data URIs into hosted URLs. It holds no mutable state.
type Pipeline struct {
	optimizer Optimizer
	uploader  Uploader
	cache     Cache
	cacheTTL  time.Duration
	logger    *logging.Logger
}

// New creates a pipeline.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Optimizer == nil {
		return nil, fmt.Errorf("optimizer required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{
		optimizer: cfg.Optimizer,
		uploader:  cfg.Uploader,
		cache:     cfg.Cache,
		cacheTTL:  cfg.CacheTTL,
		logger:    logger,
	}, nil
}

// Process returns a URL for image. Values that are not SVG data URIs are
// returned unchanged. Callers decide how to fall back on error.
func (p *Pipeline) Process(ctx context.Context, image string) (string, error) {
	if !IsDataSVG(image) {
		metrics.RecordImagePipeline(metrics.ImageSkipped)
		return image, nil
	}

	raw, err := DecodeDataURI(image)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	digest := Digest(raw)
	if url, ok := p.lookup(ctx, digest); ok {
		metrics.RecordImagePipeline(metrics.ImageCached)
		return url, nil
	}

	optimized, err := p.optimizer.Optimize(raw)
	if err != nil {
		return "", fmt.Errorf("optimize image: %w", err)
	}

	if p.uploader == nil {
		return "", ErrNoUploader
	}
	url, err := p.uploader.Upload(ctx, digest[:16]+".svg", optimized)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}

	p.store(ctx, digest, url)
	metrics.RecordImagePipeline(metrics.ImageOptimized)
	return url, nil
}

// Optimize decodes and minifies an SVG data URI without uploading it.
func (p *Pipeline) Optimize(image string) ([]byte, error) {
	raw, err := DecodeDataURI(image)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return p.optimizer.Optimize(raw)
}

func (p *Pipeline) lookup(ctx context.Context, digest string) (string, bool) {
	if p.cache == nil {
		return "", false
	}
	url, ok, err := p.cache.Get(ctx, digest)
	if err != nil {
		p.logger.WithContext(ctx).WithError(err).Warn("image cache lookup failed")
		return "", false
	}
	return url, ok
}

func (p *Pipeline) store(ctx context.Context, digest, url string) {
	if p.cache == nil {
		return
	}
	if err := p.cache.Set(ctx, digest, url, p.cacheTTL); err != nil {
		p.logger.WithContext(ctx).WithError(err).Warn("image cache store failed")
	}
}

// Digest returns the hex sha256 of data.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
