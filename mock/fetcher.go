package mock

import (
	"context"

	"github.com/fwojciec/feedsnap"
)

var _ feedsnap.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of feedsnap.Fetcher.
type Fetcher struct {
	FetchBytesFn func(ctx context.Context, url string) ([]byte, error)
}

func (f *Fetcher) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	return f.FetchBytesFn(ctx, url)
}
