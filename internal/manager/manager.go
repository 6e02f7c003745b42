// Package manager는 nvm, corepack 같은 외부 버전 관리자를 capability 인터페이스 뒤로 감싼다.
// hook은 이 인터페이스만 사용하므로 실제 도구 없이 테스트할 수 있다.
package manager

import (
	"context"
	"errors"
)

var (
	// ErrNotInstalled는 요청한 버전이 로컬에 설치되어 있지 않을 때 반환된다.
	ErrNotInstalled = errors.New("설치되지 않은 버전")
	// ErrVersionMismatch는 전환 후 재확인한 버전이 목표와 다를 때 반환된다.
	ErrVersionMismatch = errors.New("전환 후 버전 불일치")
	// ErrUnavailable은 버전 관리자 자체를 찾을 수 없을 때 반환된다.
	ErrUnavailable = errors.New("버전 관리자를 사용할 수 없음")
)

// Activation은 전환에 성공한 결과다.
// Env는 부모 셸에 export해야 하는 환경변수다 (nvm의 PATH, NVM_BIN 등).
type Activation struct {
	Version string
	Env     map[string]string
}

// NodeManager는 node 런타임 관리자다 (list/use/resolveAlias).
type NodeManager interface {
	Name() string
	// Installed는 로컬에 설치된 node 버전을 오름차순으로 반환한다.
	Installed(ctx context.Context) ([]string, error)
	// ResolveAlias는 "lts/*" 같은 별칭을 설치된 정확한 버전으로 해석한다.
	ResolveAlias(ctx context.Context, alias string) (string, error)
	// Use는 version을 활성화하고 결과 환경을 반환한다. 재확인까지 마친 뒤에만 성공한다.
	Use(ctx context.Context, version string) (Activation, error)
}

// PackageManager는 pnpm 바이너리 관리자다 (list/activate).
type PackageManager interface {
	Name() string
	Installed(ctx context.Context) ([]string, error)
	// Use는 env(새로 활성화된 node 환경 포함) 아래에서 version을 활성화한다.
	Use(ctx context.Context, version string, env map[string]string) (Activation, error)
}

// mergeEnv는 base 위에 overlay를 덮어쓴 새 맵을 반환한다.
func mergeEnv(base, overlay map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}
