package testutil

import (
	"context"
	"fmt"
	"slices"

	"github.com/hbjs97/nodeswitch/internal/manager"
)

// FakeNodeManager is an in-memory manager.NodeManager.
// Use activates any installed version unless UseErr has an entry for it.
type FakeNodeManager struct {
	Versions []string
	Aliases  map[string]string
	UseErr   map[string]error
	// BinDir is used to build the PATH returned from Use.
	BinDir string

	UseCalls   []string
	AliasCalls []string
}

// NewFakeNodeManager creates a FakeNodeManager with the given installed versions.
func NewFakeNodeManager(versions ...string) *FakeNodeManager {
	return &FakeNodeManager{
		Versions: versions,
		Aliases:  make(map[string]string),
		UseErr:   make(map[string]error),
		BinDir:   "/nvm/versions/node",
	}
}

func (m *FakeNodeManager) Name() string { return "nvm" }

func (m *FakeNodeManager) Installed(context.Context) ([]string, error) {
	return m.Versions, nil
}

func (m *FakeNodeManager) ResolveAlias(_ context.Context, alias string) (string, error) {
	m.AliasCalls = append(m.AliasCalls, alias)
	v, ok := m.Aliases[alias]
	if !ok {
		return "", fmt.Errorf("fake: %w: %s", manager.ErrNotInstalled, alias)
	}
	return v, nil
}

func (m *FakeNodeManager) Use(_ context.Context, v string) (manager.Activation, error) {
	m.UseCalls = append(m.UseCalls, v)
	if err, ok := m.UseErr[v]; ok {
		return manager.Activation{}, err
	}
	if !slices.Contains(m.Versions, v) {
		return manager.Activation{}, fmt.Errorf("fake: %w: node %s", manager.ErrNotInstalled, v)
	}
	bin := m.BinDir + "/v" + v + "/bin"
	return manager.Activation{
		Version: v,
		Env:     map[string]string{"NVM_BIN": bin, "PATH": bin + ":/usr/bin:/bin"},
	}, nil
}

// FakePackageManager is an in-memory manager.PackageManager.
type FakePackageManager struct {
	Versions []string
	UseErr   map[string]error

	UseCalls []string
	UseEnvs  []map[string]string
}

// NewFakePackageManager creates a FakePackageManager with the given cached versions.
func NewFakePackageManager(versions ...string) *FakePackageManager {
	return &FakePackageManager{Versions: versions, UseErr: make(map[string]error)}
}

func (m *FakePackageManager) Name() string { return "corepack" }

func (m *FakePackageManager) Installed(context.Context) ([]string, error) {
	return m.Versions, nil
}

func (m *FakePackageManager) Use(_ context.Context, v string, env map[string]string) (manager.Activation, error) {
	m.UseCalls = append(m.UseCalls, v)
	m.UseEnvs = append(m.UseEnvs, env)
	if err, ok := m.UseErr[v]; ok {
		return manager.Activation{}, err
	}
	return manager.Activation{Version: v}, nil
}

// FakeQuerier is an in-memory state.Querier.
type FakeQuerier struct {
	NodeVersion string
	PnpmVersion string
	NodeErr     error
	PnpmErr     error

	NodeCalls int
	PnpmCalls int
	PnpmEnvs  []map[string]string
}

func (q *FakeQuerier) Node(context.Context, map[string]string) (string, error) {
	q.NodeCalls++
	return q.NodeVersion, q.NodeErr
}

func (q *FakeQuerier) PackageManager(_ context.Context, env map[string]string) (string, error) {
	q.PnpmCalls++
	q.PnpmEnvs = append(q.PnpmEnvs, env)
	return q.PnpmVersion, q.PnpmErr
}
