package harvest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRobotsEnforcer(t *testing.T) {
	var robotsHits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			atomic.AddInt32(&robotsHits, 1)
			w.Write([]byte("User-agent: *\nDisallow: /private\n"))
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	policy := NewRobotsEnforcer(true, "menuharvest-test/1.0", zap.NewNop())
	ctx := context.Background()

	require.True(t, policy.Allowed(ctx, srv.URL+"/menu"))
	require.False(t, policy.Allowed(ctx, srv.URL+"/private/menu"))

	// Same host again: the cached policy answers without another fetch.
	require.True(t, policy.Allowed(ctx, srv.URL+"/food"))
	require.Equal(t, int32(1), atomic.LoadInt32(&robotsHits))
}

func TestRobotsEnforcerFetchFailureAllows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	policy := NewRobotsEnforcer(true, "menuharvest-test/1.0", zap.NewNop())
	// 5xx robots responses disallow-all per the robotstxt library; a network
	// failure falls back to allow.
	require.False(t, policy.Allowed(context.Background(), srv.URL+"/menu"))

	srv.Close()
	unreachable := NewRobotsEnforcer(true, "menuharvest-test/1.0", zap.NewNop())
	require.True(t, unreachable.Allowed(context.Background(), srv.URL+"/menu"))
}

func TestRobotsQueryStringRules(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.Write([]byte("User-agent: *\nDisallow: /menu?print=\n"))
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	policy := NewRobotsEnforcer(true, "menuharvest-test/1.0", zap.NewNop())
	ctx := context.Background()

	require.True(t, policy.Allowed(ctx, srv.URL+"/menu"))
	require.False(t, policy.Allowed(ctx, srv.URL+"/menu?print=1"))
}

func TestRobotsDisabled(t *testing.T) {
	policy := NewRobotsEnforcer(false, "menuharvest-test/1.0", zap.NewNop())
	require.True(t, policy.Allowed(context.Background(), "https://anything.test/private"))
}

func TestRobotsMalformedURL(t *testing.T) {
	policy := NewRobotsEnforcer(true, "menuharvest-test/1.0", zap.NewNop())
	require.False(t, policy.Allowed(context.Background(), "http://bad url/"))
}
