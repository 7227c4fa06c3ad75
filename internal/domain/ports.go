package domain

import "context"

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	// Dimension must be known before the first vector is produced.
	Dimension() int
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Remote reports whether calls leave the process and should be paced.
	Remote() bool
}

// StatefulEmbedder is an Embedder whose fitted state must travel with the
// index snapshot so queries embed into the same space.
type StatefulEmbedder interface {
	Embedder
	SaveState(dir string) error
	LoadState(dir string) error
}

// Ranker is the external ranking and explanation service.
type Ranker interface {
	Rank(ctx context.Context, prompt string) (string, error)
}
