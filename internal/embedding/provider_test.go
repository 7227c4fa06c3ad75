package embedding

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recommender/internal/domain"
)

type fakeEmbedder struct {
	dim    int
	remote bool
	// failOn makes any batch containing this text fail.
	failOn string
	// shortOn makes any batch containing this text return one vector too few.
	shortOn string
	calls   int
}

func (f *fakeEmbedder) Name() string { return "fake" }
func (f *fakeEmbedder) Prepare(corpus []string) error { return nil }
func (f *fakeEmbedder) Dimension() int { return f.dim }
func (f *fakeEmbedder) Remote() bool { return f.remote }

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == f.failOn {
		return nil, errors.New("boom")
	}
	v := make([]float32, f.dim)
	v[0] = float32(len(text))
	for i := 1; i < f.dim; i++ {
		v[i] = 1
	}
	return v, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		if f.shortOn != "" && t == f.shortOn {
			return out, nil
		}
		v, err := f.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func texts(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = strings.Repeat("x", i+1)
	}
	return out
}

func TestEmbedBatchPreservesOrderAndCount(t *testing.T) {
	f := &fakeEmbedder{dim: 3}
	p := NewProvider(f, Options{BatchSize: 4})

	in := texts(10)
	vecs, report, err := p.EmbedBatch(context.Background(), in, 0)
	require.NoError(t, err)
	require.Len(t, vecs, len(in))
	assert.Equal(t, 3, f.calls)
	assert.Equal(t, BatchReport{Texts: 10, Batches: 3}, report)
	for i, v := range vecs {
		assert.Len(t, v, 3)
		assert.Equal(t, float32(i+1), v[0])
	}
}

func TestEmbedBatchZeroFillsFailedBatch(t *testing.T) {
	in := texts(7)
	f := &fakeEmbedder{dim: 2, failOn: in[3]}
	p := NewProvider(f, Options{})

	vecs, report, err := p.EmbedBatch(context.Background(), in, 3)
	require.NoError(t, err)
	require.Len(t, vecs, 7)
	assert.Equal(t, 1, report.FailedBatches)
	assert.Equal(t, 3, report.ZeroFilled)

	for i := 3; i < 6; i++ {
		assert.Equal(t, []float32{0, 0}, vecs[i], "slot %d", i)
	}
	assert.Equal(t, float32(3), vecs[2][0])
	assert.Equal(t, float32(7), vecs[6][0])
}

func TestEmbedBatchZeroFillsShortBatch(t *testing.T) {
	in := texts(4)
	f := &fakeEmbedder{dim: 2, shortOn: in[1]}
	p := NewProvider(f, Options{})

	vecs, report, err := p.EmbedBatch(context.Background(), in, 2)
	require.NoError(t, err)
	require.Len(t, vecs, 4)
	assert.Equal(t, 1, report.FailedBatches)
	assert.Equal(t, []float32{0, 0}, vecs[0])
	assert.Equal(t, []float32{0, 0}, vecs[1])
	assert.Equal(t, float32(3), vecs[2][0])
}

func TestEmbedBatchEmptyInput(t *testing.T) {
	p := NewProvider(&fakeEmbedder{dim: 2}, Options{})
	vecs, report, err := p.EmbedBatch(context.Background(), nil, 0)
	require.NoError(t, err)
	assert.Empty(t, vecs)
	assert.Zero(t, report.Batches)
}

func TestEmbedBatchPacesRemoteEmbedder(t *testing.T) {
	f := &fakeEmbedder{dim: 2, remote: true}
	p := NewProvider(f, Options{BatchSize: 1, BatchDelay: 30 * time.Millisecond})

	start := time.Now()
	vecs, _, err := p.EmbedBatch(context.Background(), texts(3), 0)
	require.NoError(t, err)
	assert.Len(t, vecs, 3)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestEmbedBatchStopsOnCancel(t *testing.T) {
	f := &fakeEmbedder{dim: 2, remote: true}
	p := NewProvider(f, Options{BatchSize: 1, BatchDelay: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := p.EmbedBatch(ctx, texts(2), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, f.calls)
}

func TestEmbedChecksDimension(t *testing.T) {
	p := NewProvider(&fakeEmbedder{dim: 4}, Options{})
	v, err := p.Embed(context.Background(), "abc")
	require.NoError(t, err)
	assert.Len(t, v, 4)

	p = NewProvider(&wideEmbedder{fakeEmbedder{dim: 4}}, Options{})
	_, err = p.Embed(context.Background(), "abc")
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestEmbedPropagatesFailure(t *testing.T) {
	p := NewProvider(&fakeEmbedder{dim: 2, failOn: "bad"}, Options{})
	_, err := p.Embed(context.Background(), "bad")
	assert.Error(t, err)
}

// wideEmbedder reports one dimension fewer than it produces.
type wideEmbedder struct{ fakeEmbedder }

func (w *wideEmbedder) Dimension() int { return w.dim - 1 }
