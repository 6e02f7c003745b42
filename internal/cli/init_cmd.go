package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hbjs97/nodeswitch/internal/shell"
)

func (a *App) newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "init [shell]",
		Short:     "셸 hook 스니펫을 출력한다 (RC 파일에서 eval)",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: shell.Supported,
		RunE: func(cmd *cobra.Command, args []string) error {
			shellType := shell.Detect(a.getenv("SHELL"))
			if len(args) == 1 {
				shellType = args[0]
			}
			return a.runInit(cmd, shellType)
		},
	}
}

func (a *App) runInit(cmd *cobra.Command, shellType string) error {
	snippet := shell.HookSnippet(shellType)
	if snippet == "" {
		return fmt.Errorf("cli.init: %w: %q", ErrUnsupportedShell, shellType)
	}
	fmt.Fprint(cmd.OutOrStdout(), snippet)
	return nil
}
