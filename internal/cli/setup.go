package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hbjs97/nodeswitch/internal/setup"
)

func (a *App) newSetupCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "설정 파일을 만들고 셸 hook을 설치한다",
		RunE: func(cmd *cobra.Command, args []string) error {
			if force {
				if err := os.Remove(a.CfgPath); err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("cli.setup: 기존 설정 삭제 실패: %w", err)
				}
			}
			form := a.FormRunner
			if form == nil {
				form = &setup.HuhFormRunner{}
			}
			r := &setup.Runner{
				CfgPath:    a.CfgPath,
				Commander:  a.Commander,
				FS:         a.fs(),
				FormRunner: form,
				Out:        cmd.OutOrStdout(),
				Log:        zerolog.Nop(),
			}
			return r.Run(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "기존 설정을 지우고 처음부터 설정")
	return cmd
}
