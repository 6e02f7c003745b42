package setup

import (
	"context"

	"github.com/hbjs97/nodeswitch/internal/config"
)

// AliasResolver는 nvm 별칭을 설치된 버전으로 해석한다.
type AliasResolver interface {
	ResolveAlias(ctx context.Context, alias string) (string, error)
}

// PnpmProbe는 현재 활성화된 pnpm 버전을 조회한다.
type PnpmProbe interface {
	PackageManager(ctx context.Context, env map[string]string) (string, error)
}

// DetectDefaults는 현재 환경에서 폼 초기값을 추정한다.
// nvm의 default 별칭을 기본 node로, 현재 pnpm을 기본 pnpm으로 제안한다.
// 조회 실패 시 해당 값은 비워둔다 (에러로 차단하지 않음).
func DetectDefaults(ctx context.Context, nvm AliasResolver, pnpm PnpmProbe) *SettingsInput {
	input := &SettingsInput{
		Fallback:    config.FallbackKeep,
		ManagePnpm:  true,
		InstallHook: true,
	}
	if nvm != nil {
		if v, err := nvm.ResolveAlias(ctx, "default"); err == nil {
			input.DefaultNode = v
		}
	}
	if pnpm != nil {
		if v, err := pnpm.PackageManager(ctx, nil); err == nil {
			input.DefaultPnpm = v
		}
	}
	return input
}

// FromConfig는 기존 설정을 폼 초기값으로 변환한다.
func FromConfig(cfg *config.Config, hookInstalled bool) *SettingsInput {
	return &SettingsInput{
		Fallback:    cfg.Fallback,
		DefaultNode: cfg.DefaultNode,
		DefaultPnpm: cfg.DefaultPnpm,
		ManagePnpm:  cfg.IsManagePnpm(),
		InstallHook: !hookInstalled,
	}
}

// Apply는 폼 입력을 설정에 반영한다.
func (in *SettingsInput) Apply(cfg *config.Config) {
	cfg.Fallback = in.Fallback
	cfg.DefaultNode = in.DefaultNode
	cfg.DefaultPnpm = in.DefaultPnpm
	manage := in.ManagePnpm
	cfg.ManagePnpm = &manage
}
