package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"recommender/internal/domain"
)

const (
	// DefaultBatchSize is the number of texts sent per embedding call.
	DefaultBatchSize = 100
	// DefaultRemoteDelay separates consecutive batches sent to a remote service.
	DefaultRemoteDelay = 500 * time.Millisecond
)

// Options configures a Provider.
type Options struct {
	BatchSize int
	// BatchDelay applies only to remote embedders. Zero selects DefaultRemoteDelay,
	// a negative value disables pacing.
	BatchDelay time.Duration
	Logger     *slog.Logger
}

// BatchReport summarizes one EmbedBatch run.
type BatchReport struct {
	Texts         int
	Batches       int
	FailedBatches int
	ZeroFilled    int
}

// Provider wraps an Embedder with batching, pacing and dimension checks.
type Provider struct {
	embedder  domain.Embedder
	batchSize int
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// NewProvider creates a provider around e.
func NewProvider(e domain.Embedder, opts Options) *Provider {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	p := &Provider{
		embedder:  e,
		batchSize: opts.BatchSize,
		logger:    opts.Logger,
	}
	if e.Remote() {
		delay := opts.BatchDelay
		if delay == 0 {
			delay = DefaultRemoteDelay
		}
		if delay > 0 {
			p.limiter = rate.NewLimiter(rate.Every(delay), 1)
		}
	}
	return p
}

// Embedder returns the wrapped embedder.
func (p *Provider) Embedder() domain.Embedder { return p.embedder }

// Name returns the model identifier recorded in snapshots.
func (p *Provider) Name() string { return p.embedder.Name() }

// Dimension returns the width of every vector the provider produces.
func (p *Provider) Dimension() int { return p.embedder.Dimension() }

// Embed converts a single text. Unlike EmbedBatch, failures are returned.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := p.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed %s: %w", p.embedder.Name(), err)
	}
	if dim := p.Dimension(); len(vec) != dim {
		return nil, fmt.Errorf("%w: %s returned %d values, want %d", domain.ErrDimensionMismatch, p.embedder.Name(), len(vec), dim)
	}
	return vec, nil
}

// EmbedBatch converts texts in batches of batchSize (zero selects the
// configured size). The result always has one vector per text in input
// order; a failed batch is replaced with zero vectors and logged. Only
// context cancellation aborts the run.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string, batchSize int) ([][]float32, BatchReport, error) {
	if batchSize <= 0 {
		batchSize = p.batchSize
	}
	report := BatchReport{Texts: len(texts)}
	dim := p.Dimension()
	out := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += batchSize {
		end := min(start+batchSize, len(texts))
		batch := texts[start:end]
		report.Batches++

		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return nil, report, fmt.Errorf("embedding batch %d: %w", report.Batches, err)
			}
		}

		vecs, err := p.embedder.EmbedBatch(ctx, batch)
		if err == nil {
			err = checkBatch(vecs, len(batch), dim)
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, report, fmt.Errorf("embedding batch %d: %w", report.Batches, ctxErr)
			}
			p.logger.Warn("embedding batch failed, substituting zero vectors",
				"batch", report.Batches, "size", len(batch), "error", err)
			report.FailedBatches++
			report.ZeroFilled += len(batch)
			vecs = zeroVectors(len(batch), dim)
		}
		out = append(out, vecs...)
	}
	return out, report, nil
}

func checkBatch(vecs [][]float32, want, dim int) error {
	if len(vecs) != want {
		return fmt.Errorf("%w: got %d vectors for %d texts", domain.ErrLengthMismatch, len(vecs), want)
	}
	for i, v := range vecs {
		if len(v) != dim {
			return fmt.Errorf("%w: vector %d has %d values, want %d", domain.ErrDimensionMismatch, i, len(v), dim)
		}
	}
	return nil
}

func zeroVectors(n, dim int) [][]float32 {
	out := make([][]float32, n)
	for i := range out {
		out[i] = make([]float32, dim)
	}
	return out
}
