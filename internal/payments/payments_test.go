package payments

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPTransferor(t *testing.T) {
	var got transferRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tr := NewHTTPTransferor(server.URL, 5*time.Second, logrus.New())
	err := tr.Transfer("bob", "alice", 100)
	require.NoError(t, err)

	assert.Equal(t, "bob", string(got.From))
	assert.Equal(t, "alice", string(got.To))
	assert.Equal(t, int64(100), got.Amount)
}

func TestHTTPTransferor_RemoteFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "insufficient funds", http.StatusPaymentRequired)
	}))
	defer server.Close()

	tr := NewHTTPTransferor(server.URL, 5*time.Second, logrus.New())
	err := tr.Transfer("bob", "alice", 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 402")
	assert.Contains(t, err.Error(), "insufficient funds")
}

func TestHTTPTransferor_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	tr := NewHTTPTransferor(server.URL, time.Second, logrus.New())
	err := tr.Transfer("bob", "alice", 100)
	assert.Error(t, err)
}

func TestHTTPTransferor_NoEndpoint(t *testing.T) {
	tr := NewHTTPTransferor("", time.Second, logrus.New())
	err := tr.Transfer("bob", "alice", 100)
	assert.Error(t, err)
}

func TestLogTransferor(t *testing.T) {
	tr := NewLogTransferor(logrus.New())
	assert.NoError(t, tr.Transfer("bob", "alice", 100))
}
