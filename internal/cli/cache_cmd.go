package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hbjs97/nodeswitch/internal/cache"
)

func (a *App) newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "nvm 설치 목록 캐시 관리",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "nvm 설치 목록과 별칭 캐시를 비운다",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := cache.Load(a.cachePath())
			if err != nil {
				return fmt.Errorf("cli.cache: %w", err)
			}
			c.InvalidateManager("nvm")
			if err := c.Save(a.cachePath()); err != nil {
				return fmt.Errorf("cli.cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "캐시를 비웠습니다: %s\n", a.cachePath())
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "캐시 파일 경로를 출력한다",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), a.cachePath())
			return nil
		},
	})
	return cmd
}
