package mock

import (
	"context"

	"github.com/fwojciec/feedsnap"
)

var _ feedsnap.AssetWriter = (*AssetWriter)(nil)

// AssetWriter is a mock implementation of feedsnap.AssetWriter.
type AssetWriter struct {
	WriteAssetFn func(ctx context.Context, dir, name string, data []byte) (string, error)
}

func (w *AssetWriter) WriteAsset(ctx context.Context, dir, name string, data []byte) (string, error) {
	return w.WriteAssetFn(ctx, dir, name, data)
}
