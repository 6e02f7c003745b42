package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hbjs97/nodeswitch/internal/config"
	"github.com/hbjs97/nodeswitch/internal/shell"
)

func (a *App) newHookCmd() *cobra.Command {
	var shellType, dir string
	var force bool

	cmd := &cobra.Command{
		Use:   "hook",
		Short: "디렉토리 변경 시 셸 hook이 호출한다 (stdout을 eval)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.runHook(cmd, shellType, dir, force)
			return nil
		},
	}
	cmd.Flags().StringVar(&shellType, "shell", "", "셸 유형 (bash, zsh, fish). 비어있으면 $SHELL")
	cmd.Flags().StringVar(&dir, "dir", "", "평가할 디렉토리. 비어있으면 현재 디렉토리")
	cmd.Flags().BoolVar(&force, "force", false, "마지막 디렉토리와 같아도 다시 평가")
	return cmd
}

// runHook은 stdout에는 셸 문장만, stderr에는 안내만 쓴다.
// 어떤 실패도 종료 코드로 전달하지 않는다. 셸 프롬프트를 깨뜨리면 안 된다.
func (a *App) runHook(cmd *cobra.Command, shellType, dir string, force bool) {
	stderr := cmd.ErrOrStderr()
	if shellType == "" {
		shellType = shell.Detect(a.getenv("SHELL"))
	}

	cfg, err := a.loadConfig()
	if err != nil {
		newPrinter(stderr, false).Warn(fmt.Sprintf("설정을 읽을 수 없어 기본값을 사용합니다: %v", err))
		cfg = config.Default()
	}
	out := newPrinter(stderr, cfg.Quiet)
	log := a.logger(cfg, stderr)

	if dir == "" {
		dir, err = a.fs().Getwd()
		if err != nil {
			out.Warn(fmt.Sprintf("현재 디렉토리를 확인할 수 없습니다: %v", err))
			return
		}
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout())
	defer cancel()

	report := a.newPipeline(cfg, log).hook.Run(ctx, dir, force)
	if report.Skipped {
		return
	}

	fmt.Fprint(cmd.OutOrStdout(), shell.Export(report.Exports, shellType))
	fmt.Fprint(cmd.OutOrStdout(), shell.Session(report.Session, shellType))
	out.Messages(report.Messages)
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		out.Warn(fmt.Sprintf("hook 시간 초과 (%s). hook_timeout 설정을 확인하세요", cfg.Timeout()))
	}
}
