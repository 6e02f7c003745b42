package manager_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hbjs97/nodeswitch/internal/cache"
	"github.com/hbjs97/nodeswitch/internal/manager"
)

type countingManager struct {
	installed []string
	aliases   map[string]string
	lsCalls   int
	aliasCall int
}

func (m *countingManager) Name() string { return "nvm" }

func (m *countingManager) Installed(context.Context) ([]string, error) {
	m.lsCalls++
	return m.installed, nil
}

func (m *countingManager) ResolveAlias(_ context.Context, alias string) (string, error) {
	m.aliasCall++
	v, ok := m.aliases[alias]
	if !ok {
		return "", manager.ErrNotInstalled
	}
	return v, nil
}

func (m *countingManager) Use(_ context.Context, v string) (manager.Activation, error) {
	return manager.Activation{Version: v}, nil
}

func TestCachedNodeManager_ReusesListingWhileFingerprintHolds(t *testing.T) {
	inner := &countingManager{installed: []string{"18.20.0", "20.10.0"}}
	path := filepath.Join(t.TempDir(), "installed.json")
	fp := "fp1"
	cm := manager.WithCache(inner, cache.New(), path, func() string { return fp }, zerolog.Nop())

	for i := 0; i < 3; i++ {
		got, err := cm.Installed(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"18.20.0", "20.10.0"}, got)
	}
	assert.Equal(t, 1, inner.lsCalls)

	fp = "fp2"
	_, err := cm.Installed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, inner.lsCalls)
}

func TestCachedNodeManager_PersistsAcrossRuns(t *testing.T) {
	inner := &countingManager{aliases: map[string]string{"lts/*": "20.10.0"}}
	path := filepath.Join(t.TempDir(), "installed.json")
	fingerprint := func() string { return "fp" }

	first := manager.WithCache(inner, cache.New(), path, fingerprint, zerolog.Nop())
	v, err := first.ResolveAlias(context.Background(), "lts/*")
	require.NoError(t, err)
	assert.Equal(t, "20.10.0", v)

	loaded, err := cache.Load(path)
	require.NoError(t, err)
	second := manager.WithCache(inner, loaded, path, fingerprint, zerolog.Nop())
	v, err = second.ResolveAlias(context.Background(), "lts/*")
	require.NoError(t, err)
	assert.Equal(t, "20.10.0", v)
	assert.Equal(t, 1, inner.aliasCall)
}

func TestCachedNodeManager_ErrorsAreNotCached(t *testing.T) {
	inner := &countingManager{aliases: map[string]string{}}
	cm := manager.WithCache(inner, cache.New(), "", func() string { return "fp" }, zerolog.Nop())

	for i := 0; i < 2; i++ {
		_, err := cm.ResolveAlias(context.Background(), "lts/iron")
		assert.ErrorIs(t, err, manager.ErrNotInstalled)
	}
	assert.Equal(t, 2, inner.aliasCall)
}

func TestCachedNodeManager_NoFingerprintDisablesCache(t *testing.T) {
	inner := &countingManager{installed: []string{"18.20.0"}}
	c := cache.New()
	cm := manager.WithCache(inner, c, "", func() string { return "" }, zerolog.Nop())

	_, _ = cm.Installed(context.Background())
	_, _ = cm.Installed(context.Background())

	assert.Equal(t, 2, inner.lsCalls)
	assert.Empty(t, c.Entries)
}

func TestCachedNodeManager_UseIsNeverCached(t *testing.T) {
	inner := &countingManager{}
	cm := manager.WithCache(inner, cache.New(), "", func() string { return "fp" }, zerolog.Nop())

	act, err := cm.Use(context.Background(), "20.10.0")
	require.NoError(t, err)
	assert.Equal(t, "20.10.0", act.Version)
	assert.Zero(t, inner.lsCalls)
}

func TestCachedNodeManager_CurrentAliasIsNeverCached(t *testing.T) {
	inner := &countingManager{aliases: map[string]string{"current": "18.20.0", "lts/iron": "20.10.0"}}
	path := filepath.Join(t.TempDir(), "installed.json")
	cm := manager.WithCache(inner, cache.New(), path, func() string { return "fp" }, zerolog.Nop())

	for i := 0; i < 2; i++ {
		got, err := cm.ResolveAlias(context.Background(), "current")
		require.NoError(t, err)
		assert.Equal(t, "18.20.0", got)
	}
	assert.Equal(t, 2, inner.aliasCall)

	reloaded, err := cache.Load(path)
	require.NoError(t, err)
	_, ok := reloaded.Lookup(cache.AliasKey("nvm", "current"), "fp", manager.DefaultCacheTTL)
	assert.False(t, ok)

	for i := 0; i < 2; i++ {
		_, err := cm.ResolveAlias(context.Background(), "lts/iron")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, inner.aliasCall)
}
