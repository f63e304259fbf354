package linkedin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishCreatesPost(t *testing.T) {
	t.Parallel()

	var (
		got     post
		headers http.Header
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/rest/posts" {
			http.NotFound(w, r)
			return
		}
		headers = r.Header.Clone()
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("x-restli-id", "urn:li:share:1")
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	p := NewPublisher(server.URL, "token", "urn:li:person:abc", "", nil)
	require.NoError(t, p.Publish(context.Background(), "🤖 Amsterdam AI Events"))

	assert.Equal(t, "Bearer token", headers.Get("Authorization"))
	assert.Equal(t, "2.0.0", headers.Get("X-Restli-Protocol-Version"))
	assert.Equal(t, DefaultAPIVersion, headers.Get("LinkedIn-Version"))
	assert.Equal(t, "urn:li:person:abc", got.Author)
	assert.Equal(t, "🤖 Amsterdam AI Events", got.Commentary)
	assert.Equal(t, "PUBLIC", got.Visibility)
	assert.Equal(t, "MAIN_FEED", got.Distribution.FeedDistribution)
	assert.Equal(t, "PUBLISHED", got.LifecycleState)
}

func TestPublishErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Unauthorized"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	err := NewPublisher(server.URL, "token", "urn:li:person:abc", "202501", nil).Publish(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unauthorized")

	assert.Error(t, NewPublisher(server.URL, "", "urn:li:person:abc", "", nil).Publish(context.Background(), "x"))
}
