package setup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/hbjs97/nodeswitch/internal/cmdexec"
	"github.com/hbjs97/nodeswitch/internal/config"
	"github.com/hbjs97/nodeswitch/internal/doctor"
	"github.com/hbjs97/nodeswitch/internal/filesystem"
	"github.com/hbjs97/nodeswitch/internal/manager"
)

// Runner는 interactive setup의 진입점이다.
type Runner struct {
	CfgPath    string
	Commander  cmdexec.Commander
	FS         filesystem.FileSystem
	FormRunner FormRunner
	Out        io.Writer
	Log        zerolog.Logger
	ShellType  string // 비어있으면 $SHELL에서 감지.
	RCPath     string // 테스트용. 비어있으면 셸별 기본 경로.
}

// Run은 setup 플로우를 실행한다.
// 설정 파일이 없으면 현재 환경에서 초기값을 추정하고, 있으면 기존 값을 초기값으로 쓴다.
func (r *Runner) Run(ctx context.Context) error {
	cfg, err := config.Load(r.CfgPath)
	if err != nil {
		fmt.Fprintf(r.out(), "경고: 기존 설정을 읽을 수 없어 기본값으로 시작합니다: %v\n", err)
		cfg = config.Default()
	}

	nvm := manager.NewNvm(r.Commander, r.FS, cfg.ResolvedNvmDir(), r.Log)
	probe := manager.NewProbe(r.Commander)
	shellType := r.shellType()
	rcPath := r.rcPath(shellType)

	var defaults *SettingsInput
	_, statErr := os.Stat(r.CfgPath)
	switch {
	case errors.Is(statErr, os.ErrNotExist):
		fmt.Fprintln(r.out(), "nodeswitch 초기 설정을 시작합니다.")
		defaults = DetectDefaults(ctx, nvm, probe)
		defaults.InstallHook = !HookInstalled(rcPath)
	case statErr != nil:
		return fmt.Errorf("setup.Run: %w", statErr)
	default:
		r.printCurrent(cfg)
		defaults = FromConfig(cfg, HookInstalled(rcPath))
	}

	input, err := r.FormRunner.RunSettingsForm(defaults)
	if err != nil {
		return err
	}
	input.Apply(cfg)

	if err := config.Save(r.CfgPath, cfg); err != nil {
		return err
	}
	fmt.Fprintf(r.out(), "설정 파일이 저장되었습니다: %s\n", r.CfgPath)

	if input.InstallHook {
		switch {
		case shellType == "" || rcPath == "":
			fmt.Fprintf(r.out(), "경고: 셸을 감지할 수 없어 hook을 설치하지 않았습니다. nodeswitch init <shell> 출력을 RC 파일에 추가하세요\n")
		default:
			if err := InstallShellHook(shellType, rcPath); err != nil {
				fmt.Fprintf(r.out(), "경고: 셸 hook 설치 실패: %v\n", err)
			} else {
				fmt.Fprintf(r.out(), "셸 hook이 설치되었습니다: %s\n", rcPath)
			}
		}
	}

	opts := doctor.Options{
		Commander: r.Commander,
		Nvm:       nvm,
		CfgPath:   r.CfgPath,
		ShellType: shellType,
		RCPath:    rcPath,
	}
	if cfg.IsManagePnpm() {
		opts.Pnpm = probe
	}
	r.runDoctor(ctx, opts)
	return nil
}

func (r *Runner) printCurrent(cfg *config.Config) {
	fmt.Fprintln(r.out(), "현재 설정:")
	fmt.Fprintf(r.out(), "  fallback: %s\n", cfg.Fallback)
	if cfg.DefaultNode != "" {
		fmt.Fprintf(r.out(), "  default_node: %s\n", cfg.DefaultNode)
	}
	if cfg.DefaultPnpm != "" {
		fmt.Fprintf(r.out(), "  default_pnpm: %s\n", cfg.DefaultPnpm)
	}
	fmt.Fprintf(r.out(), "  manage_pnpm: %t\n", cfg.IsManagePnpm())
}

// runDoctor는 설정 완료 후 환경 진단을 실행한다.
func (r *Runner) runDoctor(ctx context.Context, opts doctor.Options) {
	fmt.Fprintln(r.out(), "\n환경 진단 실행 중...")
	for _, res := range doctor.RunAll(ctx, opts) {
		icon := "✓"
		if res.Status == doctor.StatusFail {
			icon = "✗"
		} else if res.Status == doctor.StatusWarn {
			icon = "!"
		}
		fmt.Fprintf(r.out(), "  [%s] %s: %s\n", icon, res.Name, res.Message)
		if res.Fix != "" {
			fmt.Fprintf(r.out(), "      Fix: %s\n", res.Fix)
		}
	}
}

func (r *Runner) shellType() string {
	if r.ShellType != "" {
		return r.ShellType
	}
	return DetectShell()
}

func (r *Runner) rcPath(shellType string) string {
	if r.RCPath != "" {
		return r.RCPath
	}
	return ShellRCPath(shellType)
}

func (r *Runner) out() io.Writer {
	if r.Out == nil {
		return io.Discard
	}
	return r.Out
}
