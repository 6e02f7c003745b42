package setup

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/hbjs97/nodeswitch/internal/config"
	"github.com/hbjs97/nodeswitch/internal/version"
)

// HuhFormRunner는 charmbracelet/huh 기반의 FormRunner 구현이다.
type HuhFormRunner struct{}

var _ FormRunner = (*HuhFormRunner)(nil)

// RunSettingsForm은 설정 입력 폼을 실행한다.
func (h *HuhFormRunner) RunSettingsForm(defaults *SettingsInput) (*SettingsInput, error) {
	input := &SettingsInput{Fallback: config.FallbackKeep, ManagePnpm: true, InstallHook: true}
	if defaults != nil {
		*input = *defaults
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("버전 선언이 없는 디렉토리에서").
				Options(
					huh.NewOption("현재 버전 유지", config.FallbackKeep),
					huh.NewOption("기본 버전으로 전환", config.FallbackDefault),
				).
				Value(&input.Fallback),
			huh.NewInput().
				Title("기본 node 버전").
				Description("예: 20, lts/iron, 20.10.0 (비워두면 사용 안 함)").
				Value(&input.DefaultNode).
				Validate(validateSpec("node")),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("pnpm 버전도 corepack으로 전환할까요?").
				Value(&input.ManagePnpm),
			huh.NewInput().
				Title("기본 pnpm 버전").
				Value(&input.DefaultPnpm).
				Validate(validateSpec("pnpm")),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("셸 RC 파일에 hook을 추가할까요?").
				Value(&input.InstallHook),
		),
	)
	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("setup.RunSettingsForm: %w", err)
	}

	if input.Fallback == config.FallbackDefault && input.DefaultNode == "" && input.DefaultPnpm == "" {
		return nil, fmt.Errorf("setup.RunSettingsForm: 기본 버전으로 전환하려면 기본 node 또는 pnpm 버전이 필요합니다")
	}
	return input, nil
}

// RunConfirm은 확인 프롬프트를 표시한다.
func (h *HuhFormRunner) RunConfirm(message string) (bool, error) {
	var confirm bool
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().Title(message).Value(&confirm),
	))
	if err := form.Run(); err != nil {
		return false, fmt.Errorf("setup.RunConfirm: %w", err)
	}
	return confirm, nil
}

func validateSpec(tool string) func(string) error {
	return func(s string) error {
		if s == "" {
			return nil
		}
		sp := version.ParseSpec(s)
		if !sp.Declared() || (tool == "pnpm" && sp.Kind == version.KindAlias) {
			return fmt.Errorf("올바른 %s 버전이 아닙니다: %s", tool, s)
		}
		return nil
	}
}
