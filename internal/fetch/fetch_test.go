package fetch_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/dayplanbot/internal/fetch"
	"github.com/edgard/dayplanbot/internal/resilience"
)

func TestGetJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Warsaw", r.URL.Query().Get("city"))
		assert.Equal(t, "agent/1.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":200}`))
	}))
	t.Cleanup(srv.Close)

	c := fetch.NewClient(fetch.Config{UserAgent: "agent/1.0"}, srv.Client(), nil)
	var out struct {
		Code int `json:"code"`
	}
	require.NoError(t, c.GetJSON(context.Background(), srv.URL, url.Values{"city": {"Warsaw"}}, &out))
	assert.Equal(t, 200, out.Code)
}

func TestGetStatusError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	c := fetch.NewClient(fetch.Config{}, srv.Client(), nil)
	_, err := c.Get(context.Background(), srv.URL, nil)
	require.ErrorIs(t, err, fetch.ErrStatus)

	var se *fetch.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.Code)
}

func TestBreakerOpensPerHost(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	c := fetch.NewClient(fetch.Config{BreakerFailures: 2, BreakerTimeout: time.Hour}, srv.Client(), nil)
	for range 2 {
		_, err := c.Get(context.Background(), srv.URL, nil)
		require.ErrorIs(t, err, fetch.ErrStatus)
	}

	_, err := c.Get(context.Background(), srv.URL, nil)
	require.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, int32(2), hits.Load())
}

func TestGetInvalidURL(t *testing.T) {
	t.Parallel()
	c := fetch.NewClient(fetch.Config{}, nil, nil)
	_, err := c.Get(context.Background(), "://bad", nil)
	assert.Error(t, err)
}
