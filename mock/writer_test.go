package mock_test

import (
	"context"
	"testing"

	"github.com/fwojciec/feedsnap"
	"github.com/fwojciec/feedsnap/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetWriter_ImplementsInterface(t *testing.T) {
	t.Parallel()

	// Verify mock can be used where AssetWriter is expected
	var _ feedsnap.AssetWriter = &mock.AssetWriter{}
}

func TestAssetWriter_WriteAsset(t *testing.T) {
	t.Parallel()

	t.Run("delegates to function", func(t *testing.T) {
		t.Parallel()

		var gotDir, gotName string
		var gotData []byte
		w := &mock.AssetWriter{
			WriteAssetFn: func(_ context.Context, dir, name string, data []byte) (string, error) {
				gotDir, gotName, gotData = dir, name, data
				return dir + "/" + name, nil
			},
		}

		path, err := w.WriteAsset(context.Background(), "/tmp/album", "3.jpg", []byte("jpeg"))

		require.NoError(t, err)
		assert.Equal(t, "/tmp/album/3.jpg", path)
		assert.Equal(t, "/tmp/album", gotDir)
		assert.Equal(t, "3.jpg", gotName)
		assert.Equal(t, []byte("jpeg"), gotData)
	})

	t.Run("returns error from function", func(t *testing.T) {
		t.Parallel()

		w := &mock.AssetWriter{
			WriteAssetFn: func(context.Context, string, string, []byte) (string, error) {
				return "", feedsnap.Errorf(feedsnap.EINVALID, "invalid name")
			},
		}

		_, err := w.WriteAsset(context.Background(), "/tmp/album", "..", nil)

		require.Error(t, err)
		assert.Equal(t, feedsnap.EINVALID, feedsnap.ErrorCode(err))
	})
}
