package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPNotifier_Notify(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := NewHTTPNotifier(server.URL + "/")
	err := notifier.Notify(context.Background(), "abc123")
	require.NoError(t, err)

	assert.Equal(t, "/process", gotPath)
	assert.Equal(t, map[string]string{"doc_id": "abc123"}, gotBody)
}

func TestHTTPNotifier_NotifyNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	notifier := NewHTTPNotifier(server.URL)
	err := notifier.Notify(context.Background(), "abc123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestHTTPNotifier_NotifyUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	notifier := NewHTTPNotifier(server.URL)
	err := notifier.Notify(context.Background(), "abc123")
	assert.Error(t, err)
}
