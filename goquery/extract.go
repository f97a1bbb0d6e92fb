// Package goquery extracts asset references from a rendered document
// using goquery.
package goquery

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/feedsnap"
)

// Ensure AssetExtractor implements feedsnap.AssetExtractor at compile time.
var _ feedsnap.AssetExtractor = (*AssetExtractor)(nil)

// AssetExtractor reads image sources from an HTML snapshot.
type AssetExtractor struct {
	// Attr is the attribute holding the asset URL. Defaults to "src".
	Attr string
}

// NewAssetExtractor creates an AssetExtractor reading the src attribute.
func NewAssetExtractor() *AssetExtractor {
	return &AssetExtractor{Attr: "src"}
}

// ExtractAssets returns one reference per element matching selector, in
// document order. Ordinals are assigned in that order starting at zero.
// Relative sources are resolved against pageURL.
func (e *AssetExtractor) ExtractAssets(html, pageURL, selector string) ([]feedsnap.AssetReference, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, feedsnap.Errorf(feedsnap.EINVALID, "invalid page URL: %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, feedsnap.Errorf(feedsnap.EINVALID, "failed to parse HTML: %v", err)
	}

	attr := e.Attr
	if attr == "" {
		attr = "src"
	}

	var refs []feedsnap.AssetReference
	var extractErr error
	doc.Find(selector).EachWithBreak(func(i int, sel *goquery.Selection) bool {
		src, exists := sel.Attr(attr)
		src = strings.TrimSpace(src)
		if !exists || src == "" {
			extractErr = feedsnap.Errorf(feedsnap.EINVALID, "item %d matching %q has no %s", i, selector, attr)
			return false
		}

		resolved, err := resolveURL(base, src)
		if err != nil {
			extractErr = feedsnap.Errorf(feedsnap.EINVALID, "item %d has invalid %s %q: %v", i, attr, src, err)
			return false
		}

		refs = append(refs, feedsnap.AssetReference{
			URL:     resolved,
			Ordinal: i,
		})
		return true
	})
	if extractErr != nil {
		return nil, extractErr
	}

	return refs, nil
}

// resolveURL resolves src against base and strips the fragment.
func resolveURL(base *url.URL, src string) (string, error) {
	ref, err := url.Parse(src)
	if err != nil {
		return "", err
	}
	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""
	return resolved.String(), nil
}
