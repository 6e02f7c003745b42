package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hbjs97/nodeswitch/internal/config"
	"github.com/hbjs97/nodeswitch/internal/doctor"
	"github.com/hbjs97/nodeswitch/internal/manager"
	"github.com/hbjs97/nodeswitch/internal/setup"
	"github.com/hbjs97/nodeswitch/internal/shell"
)

func (a *App) newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "환경 설정을 진단한다",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDoctor(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}

func (a *App) runDoctor(ctx context.Context, stdout, stderr io.Writer) error {
	cfg, err := a.loadConfig()
	if err != nil {
		// CheckConfig가 같은 오류를 FAIL로 보고한다.
		cfg = config.Default()
	}
	log := a.logger(cfg, stderr)

	shellType := shell.Detect(a.getenv("SHELL"))
	opts := doctor.Options{
		Commander: a.Commander,
		Nvm:       manager.NewNvm(a.Commander, a.fs(), cfg.ResolvedNvmDir(), log),
		CfgPath:   a.CfgPath,
		ShellType: shellType,
		RCPath:    setup.ShellRCPath(shellType),
		Lookup:    a.lookupEnv(),
	}
	if cfg.IsManagePnpm() {
		opts.Pnpm = manager.NewProbe(a.Commander)
	}

	results := doctor.RunAll(ctx, opts)
	printDiagResults(stdout, results)
	if !doctor.HasFailure(results) {
		return nil
	}
	fmt.Fprintln(stdout, "\n실패한 항목의 Fix를 확인하세요.")
	return diagnosisError(results)
}

// diagnosisError는 실패한 진단을 종료 코드용 sentinel error로 감싼다. 설정 오류가 우선한다.
func diagnosisError(results []doctor.DiagResult) error {
	var failed []string
	for _, r := range results {
		if r.Status != doctor.StatusFail {
			continue
		}
		if r.Name == "config" {
			return fmt.Errorf("cli.doctor: %w: %s", ErrConfig, r.Message)
		}
		failed = append(failed, r.Name)
	}
	return fmt.Errorf("cli.doctor: %w: %s", ErrUnavailable, strings.Join(failed, ", "))
}
