package facts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRandom(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/facts/random" || r.URL.Query().Get("language") != "en" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","text":"Bananas are berries."}`))
	}))
	defer srv.Close()

	c := New(srv.URL + "/")
	text, err := c.Random(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Bananas are berries.", text)
}

func TestOfTheDayFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	day := time.Date(2025, time.January, 3, 9, 0, 0, 0, time.UTC)
	c := New(srv.URL)

	_, err := c.Random(context.Background())
	require.Error(t, err)
	require.Equal(t, Fallback(day), c.OfTheDay(context.Background(), day))
	require.Equal(t, fallback[3], Fallback(day))
}
