package supabase_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storybook-backend/internal/supabase"
)

func newTestStorageClient(t *testing.T) *supabase.StorageClient {
	client, err := supabase.NewStorageClient("https://project.supabase.test/", "test-key", "artifacts")
	require.NoError(t, err)
	return client
}

func TestStorageClient_RetryWithBackoff(t *testing.T) {
	client := newTestStorageClient(t)

	callCount := 0
	err := client.RetryWithBackoff(func() error {
		callCount++
		if callCount < 3 {
			return assert.AnError
		}
		return nil
	}, 3)

	assert.NoError(t, err)
	assert.Equal(t, 3, callCount)
}

func TestStorageClient_RetryWithBackoff_Exhausted(t *testing.T) {
	client := newTestStorageClient(t)

	err := client.RetryWithBackoff(func() error {
		return assert.AnError
	}, 3)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 3 retries")
}

func TestStorageClient_ObjectPathRoundTrip(t *testing.T) {
	client := newTestStorageClient(t)

	url := client.PublicURL("projects/p1/pages/p2/illustration/x.png")
	path, ok := client.ObjectPath(url)
	assert.True(t, ok)
	assert.Equal(t, "projects/p1/pages/p2/illustration/x.png", path)
}

func TestStorageClient_ObjectPathForeignURL(t *testing.T) {
	client := newTestStorageClient(t)

	_, ok := client.ObjectPath("https://elsewhere.test/storage/v1/object/public/artifacts/x.png")
	assert.False(t, ok)

	_, ok = client.ObjectPath(uuid.NewString())
	assert.False(t, ok)
}
