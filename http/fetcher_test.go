package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fwojciec/feedsnap"
	feedsnaphttp "github.com/fwojciec/feedsnap/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcher_FetchBytes(t *testing.T) {
	t.Parallel()

	t.Run("returns body from server", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write([]byte{0xff, 0xd8, 0xff})
		}))
		defer server.Close()

		fetcher, err := feedsnaphttp.NewFetcher()
		require.NoError(t, err)

		data, err := fetcher.FetchBytes(context.Background(), server.URL+"/img/1.jpg")

		require.NoError(t, err)
		assert.Equal(t, []byte{0xff, 0xd8, 0xff}, data)
	})

	t.Run("presents the page identity", func(t *testing.T) {
		t.Parallel()

		var gotUA, gotReferer, gotCookie string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA = r.UserAgent()
			gotReferer = r.Referer()
			if c, err := r.Cookie("over18"); err == nil {
				gotCookie = c.Value
			}
			_, _ = w.Write([]byte("ok"))
		}))
		defer server.Close()

		fetcher, err := feedsnaphttp.NewFetcher(feedsnaphttp.WithIdentity(feedsnap.Identity{
			UserAgent: "Mozilla/5.0 (feedsnap test)",
			PageURL:   server.URL + "/album/42",
			Cookies:   []*http.Cookie{{Name: "over18", Value: "1", Path: "/"}},
		}))
		require.NoError(t, err)

		_, err = fetcher.FetchBytes(context.Background(), server.URL+"/img/1.jpg")

		require.NoError(t, err)
		assert.Equal(t, "Mozilla/5.0 (feedsnap test)", gotUA)
		assert.Equal(t, server.URL+"/album/42", gotReferer)
		assert.Equal(t, "1", gotCookie)
	})

	t.Run("user agent option overrides identity", func(t *testing.T) {
		t.Parallel()

		var gotUA string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA = r.UserAgent()
		}))
		defer server.Close()

		fetcher, err := feedsnaphttp.NewFetcher(
			feedsnaphttp.WithIdentity(feedsnap.Identity{UserAgent: "browser"}),
			feedsnaphttp.WithUserAgent("custom"),
		)
		require.NoError(t, err)

		_, err = fetcher.FetchBytes(context.Background(), server.URL)

		require.NoError(t, err)
		assert.Equal(t, "custom", gotUA)
	})

	t.Run("classifies status codes", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			status int
			code   string
		}{
			{http.StatusNotFound, feedsnap.ENOTFOUND},
			{http.StatusGone, feedsnap.ENOTFOUND},
			{http.StatusRequestTimeout, feedsnap.ETRANSIENT},
			{http.StatusTooManyRequests, feedsnap.ETRANSIENT},
			{http.StatusInternalServerError, feedsnap.ETRANSIENT},
			{http.StatusServiceUnavailable, feedsnap.ETRANSIENT},
			{http.StatusForbidden, feedsnap.EINVALID},
		}

		for _, tt := range tests {
			t.Run(http.StatusText(tt.status), func(t *testing.T) {
				t.Parallel()

				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tt.status)
				}))
				defer server.Close()

				fetcher, err := feedsnaphttp.NewFetcher()
				require.NoError(t, err)

				_, err = fetcher.FetchBytes(context.Background(), server.URL)

				require.Error(t, err)
				assert.Equal(t, tt.code, feedsnap.ErrorCode(err))
			})
		}
	})

	t.Run("timeout is transient", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
			_, _ = w.Write([]byte("late"))
		}))
		defer server.Close()

		fetcher, err := feedsnaphttp.NewFetcher(feedsnaphttp.WithTimeout(10 * time.Millisecond))
		require.NoError(t, err)

		_, err = fetcher.FetchBytes(context.Background(), server.URL)

		require.Error(t, err)
		assert.True(t, feedsnap.IsTransient(err))
	})

	t.Run("returns context error when canceled", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("ok"))
		}))
		defer server.Close()

		fetcher, err := feedsnaphttp.NewFetcher()
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err = fetcher.FetchBytes(ctx, server.URL)

		require.ErrorIs(t, err, context.Canceled)
		assert.False(t, feedsnap.IsTransient(err))
	})

	t.Run("rejects non-http URLs", func(t *testing.T) {
		t.Parallel()

		fetcher, err := feedsnaphttp.NewFetcher()
		require.NoError(t, err)

		for _, u := range []string{"ftp://img.example/a.jpg", "/img/a.jpg", "data:image/gif;base64,R0lGOD", "http://%zz"} {
			_, err := fetcher.FetchBytes(context.Background(), u)
			require.Error(t, err, u)
			assert.Equal(t, feedsnap.EINVALID, feedsnap.ErrorCode(err), u)
		}
	})

	t.Run("unreachable host is transient", func(t *testing.T) {
		t.Parallel()

		fetcher, err := feedsnaphttp.NewFetcher(feedsnaphttp.WithTimeout(100 * time.Millisecond))
		require.NoError(t, err)

		_, err = fetcher.FetchBytes(context.Background(), "http://non-existent-host.invalid/a.jpg")

		require.Error(t, err)
		assert.True(t, feedsnap.IsTransient(err))
	})
}

func TestNewFetcher(t *testing.T) {
	t.Parallel()

	t.Run("rejects cookies without a page URL", func(t *testing.T) {
		t.Parallel()

		_, err := feedsnaphttp.NewFetcher(feedsnaphttp.WithIdentity(feedsnap.Identity{
			Cookies: []*http.Cookie{{Name: "a", Value: "b"}},
		}))

		require.Error(t, err)
		assert.Equal(t, feedsnap.EINVALID, feedsnap.ErrorCode(err))
	})

	t.Run("factory applies identity", func(t *testing.T) {
		t.Parallel()

		var gotUA string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA = r.UserAgent()
		}))
		defer server.Close()

		factory := feedsnaphttp.NewFetcherFactory(feedsnaphttp.WithTimeout(time.Second))
		fetcher, err := factory(feedsnap.Identity{UserAgent: "from-browser"})
		require.NoError(t, err)

		_, err = fetcher.FetchBytes(context.Background(), server.URL)

		require.NoError(t, err)
		assert.Equal(t, "from-browser", gotUA)
	})
}

// Compile-time verification that Fetcher implements feedsnap.Fetcher
var _ feedsnap.Fetcher = (*feedsnaphttp.Fetcher)(nil)
