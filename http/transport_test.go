package http_test

import (
	"math"
	"net/http"
	"testing"

	feedsnaphttp "github.com/fwojciec/feedsnap/http"
	"github.com/stretchr/testify/assert"
)

func TestLiftConnectionLimit(t *testing.T) {
	t.Parallel()

	t.Run("lifts default limits once", func(t *testing.T) {
		t.Parallel()

		tr := &http.Transport{MaxConnsPerHost: 2}

		assert.True(t, feedsnaphttp.LiftConnectionLimit(tr))
		assert.Equal(t, math.MaxInt, tr.MaxIdleConnsPerHost)
		assert.Equal(t, 0, tr.MaxConnsPerHost)

		assert.False(t, feedsnaphttp.LiftConnectionLimit(tr))
	})

	t.Run("keeps explicit limits", func(t *testing.T) {
		t.Parallel()

		tr := &http.Transport{MaxIdleConnsPerHost: 16, MaxConnsPerHost: 32}

		assert.False(t, feedsnaphttp.LiftConnectionLimit(tr))
		assert.Equal(t, 16, tr.MaxIdleConnsPerHost)
		assert.Equal(t, 32, tr.MaxConnsPerHost)
	})

	t.Run("new transport is already lifted", func(t *testing.T) {
		t.Parallel()

		tr := feedsnaphttp.NewTransport()

		assert.Equal(t, math.MaxInt, tr.MaxIdleConnsPerHost)
		assert.False(t, feedsnaphttp.LiftConnectionLimit(tr))
	})
}
