package ai

import (
	"context"

	"github.com/custodia-labs/debtscan/internal/core/ports/driven"
)

// unavailable stands in for an embedding service that could not be created.
// Every call that needs the provider returns the creation error, so commands
// that never embed keep working without credentials.
type unavailable struct {
	err error
}

// Unavailable returns an EmbeddingService whose operations all fail with err.
func Unavailable(err error) driven.EmbeddingService {
	return &unavailable{err: err}
}

func (u *unavailable) Embed(context.Context, string) ([]float32, error)          { return nil, u.err }
func (u *unavailable) EmbedBatch(context.Context, []string) ([][]float32, error) { return nil, u.err }
func (u *unavailable) Dimensions() int                                           { return 0 }
func (u *unavailable) ModelName() string                                         { return "" }
func (u *unavailable) Ping(context.Context) error                                { return u.err }
func (u *unavailable) Close() error                                              { return nil }
