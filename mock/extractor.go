package mock

import "github.com/fwojciec/feedsnap"

var _ feedsnap.AssetExtractor = (*AssetExtractor)(nil)

// AssetExtractor is a mock implementation of feedsnap.AssetExtractor.
type AssetExtractor struct {
	ExtractAssetsFn func(html, pageURL, selector string) ([]feedsnap.AssetReference, error)
}

func (e *AssetExtractor) ExtractAssets(html, pageURL, selector string) ([]feedsnap.AssetReference, error) {
	return e.ExtractAssetsFn(html, pageURL, selector)
}
