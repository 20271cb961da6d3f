// SPDX-License-Identifier: MIT

package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/groveworks/siteconf/internal/config"
	"github.com/groveworks/siteconf/internal/domains"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func startManager(t *testing.T, dir string) *config.Manager {
	t.Helper()
	mgr, err := config.NewManager(dir, domains.All())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, mgr.Start(ctx))
	t.Cleanup(func() {
		cancel()
		require.NoError(t, mgr.Close())
	})
	return mgr
}

func TestStartBootstrapsMissingFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "config")
	mgr := startManager(t, dir)

	for _, name := range []string{"statistics", "content", "settings"} {
		_, err := os.Stat(filepath.Join(dir, name+".yaml"))
		assert.NoError(t, err, "template for %s must exist", name)
	}

	// Templates round-trip: the initial load of a just-written template
	// must reproduce the compiled-in defaults.
	for _, d := range domains.All() {
		assert.True(t, mgr.Get(d.Name).Equal(d.Defaults), "domain %s", d.Name)
	}
}

func TestEmptyStatisticsInputYieldsFullDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "statistics.yaml"), []byte("{}\n"), 0o600))
	mgr := startManager(t, dir)

	stats := mgr.Get("statistics")
	freq, ok := stats.Lookup("update_frequency")
	require.True(t, ok)
	assert.Equal(t, 30.0, freq.NumberVal())

	entries, ok := stats.Lookup("statistics")
	require.True(t, ok)
	assert.Equal(t, 3, entries.Len(), "three named statistics entries")
	for _, key := range entries.Keys() {
		icon, ok := entries.Get(key)
		require.True(t, ok)
		iconLeaf, ok := icon.Get("icon")
		require.True(t, ok)
		assert.NotEmpty(t, iconLeaf.StringVal())
		format, ok := icon.Get("format")
		require.True(t, ok)
		assert.NotEmpty(t, format.StringVal())
	}
}

func TestMalformedContentFileFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "content.yaml"), []byte("tabs: [broken\n"), 0o600))

	mgr, err := config.NewManager(dir, domains.All())
	require.NoError(t, err)

	var errEvents []config.Event
	mgr.Subscribe(config.EventError, func(ev config.Event) { errEvents = append(errEvents, ev) })

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, mgr.Start(ctx))
	t.Cleanup(func() {
		cancel()
		require.NoError(t, mgr.Close())
	})

	require.NotEmpty(t, errEvents)
	assert.Equal(t, "content", errEvents[0].Domain)
	assert.True(t, errEvents[0].UsingDefault)

	biz, ok := mgr.Get("content").Lookup("paypal.business_id")
	require.True(t, ok)
	assert.Equal(t, domains.PayPalBusinessID, biz.StringVal())
}

func TestWatcherAppliesExternalEdit(t *testing.T) {
	dir := t.TempDir()
	settingsPath := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(settingsPath, []byte("api:\n  poll_interval: 1000\n"), 0o600))

	mgr, err := config.NewManager(dir, domains.All())
	require.NoError(t, err)

	changed := make(chan config.Event, 8)
	mgr.Subscribe(config.EventChanged, func(ev config.Event) { changed <- ev })

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, mgr.Start(ctx))
	t.Cleanup(func() {
		cancel()
		require.NoError(t, mgr.Close())
	})

	poll, _ := mgr.Get("settings").Lookup("api.poll_interval")
	require.Equal(t, 1000.0, poll.NumberVal())

	require.NoError(t, os.WriteFile(settingsPath, []byte("api:\n  poll_interval: 5000\n"), 0o600))

	select {
	case ev := <-changed:
		assert.Equal(t, "settings.yaml", ev.File)
		assert.Equal(t, "settings", ev.Domain)
		assert.False(t, ev.Time.IsZero())
	case <-time.After(5 * time.Second):
		t.Fatal("no Changed event after external edit")
	}

	poll, _ = mgr.Get("settings").Lookup("api.poll_interval")
	assert.Equal(t, 5000.0, poll.NumberVal())
}

func TestWatcherKeepsLastKnownGoodOnBadEdit(t *testing.T) {
	dir := t.TempDir()
	settingsPath := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(settingsPath, []byte("api:\n  poll_interval: 2500\n"), 0o600))

	mgr, err := config.NewManager(dir, domains.All())
	require.NoError(t, err)

	errs := make(chan config.Event, 8)
	mgr.Subscribe(config.EventError, func(ev config.Event) { errs <- ev })

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, mgr.Start(ctx))
	t.Cleanup(func() {
		cancel()
		require.NoError(t, mgr.Close())
	})

	require.NoError(t, os.WriteFile(settingsPath, []byte("api: [broken\n"), 0o600))

	select {
	case ev := <-errs:
		assert.Equal(t, "settings", ev.Domain)
		assert.False(t, ev.UsingDefault, "a prior good snapshot exists")
	case <-time.After(5 * time.Second):
		t.Fatal("no Error event after bad edit")
	}

	poll, _ := mgr.Get("settings").Lookup("api.poll_interval")
	assert.Equal(t, 2500.0, poll.NumberVal(), "last known good must be retained")
}

// A domain whose template cannot be written never becomes file-backed, but
// its compiled-in default keeps answering reads, and the other domains are
// unaffected.
func TestBootstrapFailureAbortsOnlyThatDomain(t *testing.T) {
	dir := t.TempDir()
	// A directory squatting on the settings path makes both the template
	// write and any later read impossible.
	require.NoError(t, os.Mkdir(filepath.Join(dir, "settings.yaml"), 0o750))

	mgr, err := config.NewManager(dir, domains.All())
	require.NoError(t, err)

	var errEvents []config.Event
	mgr.Subscribe(config.EventError, func(ev config.Event) { errEvents = append(errEvents, ev) })

	ctx, cancel := context.WithCancel(context.Background())
	startErr := mgr.Start(ctx)
	t.Cleanup(func() {
		cancel()
		require.NoError(t, mgr.Close())
	})

	require.Error(t, startErr)
	assert.ErrorIs(t, startErr, config.ErrBootstrap)

	require.Len(t, errEvents, 1)
	assert.Equal(t, "settings", errEvents[0].Domain)
	assert.True(t, errEvents[0].UsingDefault)
	assert.ErrorIs(t, errEvents[0].Err, config.ErrBootstrap)

	// The compiled-in default still answers reads for the broken domain.
	assert.True(t, mgr.Get("settings").Equal(domains.Settings().Defaults))

	// The other domains bootstrapped, loaded and are watched normally.
	for _, name := range []string{"statistics", "content"} {
		_, err := os.Stat(filepath.Join(dir, name+".yaml"))
		assert.NoError(t, err, "template for %s must exist", name)
	}
	changed := make(chan config.Event, 8)
	mgr.Subscribe(config.EventChanged, func(ev config.Event) { changed <- ev })
	require.NoError(t, os.WriteFile(filepath.Join(dir, "statistics.yaml"),
		[]byte("update_frequency: 60\n"), 0o600))

	select {
	case ev := <-changed:
		assert.Equal(t, "statistics.yaml", ev.File)
	case <-time.After(5 * time.Second):
		t.Fatal("healthy domain lost its watch")
	}
	freq, _ := mgr.Get("statistics").Lookup("update_frequency")
	assert.Equal(t, 60.0, freq.NumberVal())
}

func TestDuplicateDomainRejected(t *testing.T) {
	_, err := config.NewManager(t.TempDir(), []config.Domain{
		domains.Settings(), domains.Settings(),
	})
	require.Error(t, err)
}
