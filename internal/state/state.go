// Package state는 셸 세션 단위의 활성 버전 상태를 관리한다.
// hook은 매번 새 프로세스로 실행되므로 상태는 셸 로컬 변수에 저장되고, 다음 실행 때 스니펫이
// 환경 변수 접두어로 넘긴다. export하지 않으므로 하위 셸은 상태를 상속하지 않는다.
package state

import (
	"context"

	"github.com/rs/zerolog"
)

// Unknown은 아직 확인되지 않은 버전을 나타내는 sentinel 값이다.
const Unknown = "unknown"

// 세션 상태를 hook 프로세스에 전달하는 환경 변수.
const (
	EnvNode    = "NODESWITCH_NODE"
	EnvPnpm    = "NODESWITCH_PNPM"
	EnvLastDir = "NODESWITCH_LAST_DIR"
)

// ActiveState는 현재 셸 세션에서 활성화된 버전과 마지막으로 평가한 디렉토리다.
type ActiveState struct {
	Node           string
	PackageManager string
	LastDir        string
}

// Querier는 버전 관리자에게 실제 활성 버전을 묻는다.
type Querier interface {
	Node(ctx context.Context, env map[string]string) (string, error)
	PackageManager(ctx context.Context, env map[string]string) (string, error)
}

// FromEnv는 hook 호출에 전달된 세션 변수에서 상태를 복원한다. 값이 없으면 Unknown이다.
func FromEnv(lookup func(string) (string, bool)) ActiveState {
	get := func(key, fallback string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return fallback
	}
	return ActiveState{
		Node:           get(EnvNode, Unknown),
		PackageManager: get(EnvPnpm, Unknown),
		LastDir:        get(EnvLastDir, ""),
	}
}

// Tracker는 ActiveState의 단일 소유자다. hook 한 번의 실행 동안만 존재하며 잠금이 필요 없다.
type Tracker struct {
	state ActiveState
	q     Querier
	log   zerolog.Logger
}

// NewTracker는 initial 상태로 Tracker를 생성한다. 빈 버전 값은 Unknown으로 바뀐다.
func NewTracker(initial ActiveState, q Querier, log zerolog.Logger) *Tracker {
	if initial.Node == "" {
		initial.Node = Unknown
	}
	if initial.PackageManager == "" {
		initial.PackageManager = Unknown
	}
	return &Tracker{state: initial, q: q, log: log}
}

// Get은 마지막으로 알려진 상태를 I/O 없이 반환한다.
func (t *Tracker) Get() ActiveState {
	return t.state
}

// Refresh는 버전 관리자에게 실제 버전을 다시 묻고 캐시된 값을 교체한다.
// 조회에 실패한 값은 Unknown이 된다. withPackageManager가 false면 pnpm은 조회하지 않는다.
func (t *Tracker) Refresh(ctx context.Context, withPackageManager bool) {
	t.state.Node = t.query(ctx, "node", t.q.Node)
	if withPackageManager {
		t.state.PackageManager = t.query(ctx, "pnpm", t.q.PackageManager)
	}
}

// EnsureInitialized는 Unknown인 값만 조회한다. 첫 hook 실행에서 lazy 초기화에 쓰인다.
func (t *Tracker) EnsureInitialized(ctx context.Context, withPackageManager bool) {
	if t.state.Node == Unknown {
		t.state.Node = t.query(ctx, "node", t.q.Node)
	}
	if withPackageManager && t.state.PackageManager == Unknown {
		t.state.PackageManager = t.query(ctx, "pnpm", t.q.PackageManager)
	}
}

// RefreshPackageManager는 env(새 node 환경) 아래에서 pnpm 버전만 다시 조회한다.
// node 전환으로 PATH가 바뀌면 pnpm shim도 바뀔 수 있다.
func (t *Tracker) RefreshPackageManager(ctx context.Context, env map[string]string) {
	v, err := t.q.PackageManager(ctx, env)
	if err != nil {
		t.log.Debug().Err(err).Msg("pnpm 버전 조회 실패")
		t.state.PackageManager = Unknown
		return
	}
	t.state.PackageManager = v
}

// Update는 전환이 확인된 버전을 기록한다. 빈 값은 해당 차원을 건드리지 않는다.
func (t *Tracker) Update(node, packageManager string) {
	if node != "" {
		t.state.Node = node
	}
	if packageManager != "" {
		t.state.PackageManager = packageManager
	}
}

// SetLastDir는 마지막으로 평가한 디렉토리를 기록한다.
func (t *Tracker) SetLastDir(dir string) {
	t.state.LastDir = dir
}

// Vars는 다음 hook 실행에 전달할 세션 변수다.
func (t *Tracker) Vars() map[string]string {
	return map[string]string{
		EnvNode:    t.state.Node,
		EnvPnpm:    t.state.PackageManager,
		EnvLastDir: t.state.LastDir,
	}
}

func (t *Tracker) query(ctx context.Context, name string, fn func(context.Context, map[string]string) (string, error)) string {
	v, err := fn(ctx, nil)
	if err != nil {
		t.log.Debug().Err(err).Str("tool", name).Msg("버전 조회 실패")
		return Unknown
	}
	return v
}
