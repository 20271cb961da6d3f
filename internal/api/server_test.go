// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groveworks/siteconf/internal/config"
	"github.com/groveworks/siteconf/internal/domains"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	mgr, err := config.NewManager(t.TempDir(), domains.All())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, mgr.Start(ctx))
	t.Cleanup(func() {
		cancel()
		_ = mgr.Close()
	})

	ts := httptest.NewServer(New(mgr).Router(Options{}))
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestGetAllServesEveryDomain(t *testing.T) {
	ts := testServer(t)

	status, body := getJSON(t, ts.URL+"/api/config")
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, body, 3)
	for _, name := range []string{"statistics", "content", "settings"} {
		assert.Contains(t, body, name)
	}
}

func TestGetDomainServesStoredTreeVerbatim(t *testing.T) {
	ts := testServer(t)

	status, body := getJSON(t, ts.URL+"/api/config/content")
	assert.Equal(t, http.StatusOK, status)

	paypal, ok := body["paypal"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, domains.PayPalBusinessID, paypal["business_id"])
}

func TestGetUnknownDomainServesEmptyMapping(t *testing.T) {
	ts := testServer(t)

	status, body := getJSON(t, ts.URL+"/api/config/nonexistent")
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, body)
}

func TestHealthz(t *testing.T) {
	ts := testServer(t)
	status, body := getJSON(t, ts.URL+"/healthz")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestGetDomainSetsLastModified(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Get(ts.URL + "/api/config/settings")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.NotEmpty(t, resp.Header.Get("Last-Modified"),
		"a loaded domain must advertise its last update time")
}
