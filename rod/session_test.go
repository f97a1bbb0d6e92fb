package rod_test

import (
	"testing"

	"github.com/fwojciec/feedsnap"
	"github.com/fwojciec/feedsnap/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Ensure Browser implements feedsnap.Browser.
var _ feedsnap.Browser = (*rod.Browser)(nil)

func TestConvertCookies(t *testing.T) {
	t.Parallel()

	t.Run("copies identity fields", func(t *testing.T) {
		t.Parallel()

		cookies := rod.ConvertCookies([]*proto.NetworkCookie{
			{Name: "over18", Value: "1", Domain: ".gallery.example", Path: "/", Secure: true, HTTPOnly: true},
			{Name: "sid", Value: "abc", Domain: "gallery.example", Path: "/album"},
		})

		require.Len(t, cookies, 2)
		assert.Equal(t, "over18", cookies[0].Name)
		assert.Equal(t, "1", cookies[0].Value)
		assert.Equal(t, ".gallery.example", cookies[0].Domain)
		assert.Equal(t, "/", cookies[0].Path)
		assert.True(t, cookies[0].Secure)
		assert.True(t, cookies[0].HttpOnly)
		assert.Equal(t, "/album", cookies[1].Path)
		assert.False(t, cookies[1].Secure)
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()

		assert.Empty(t, rod.ConvertCookies(nil))
	})
}
