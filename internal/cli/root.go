package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// NewRootCmd는 nodeswitch CLI의 루트 명령을 생성한다.
func (a *App) NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "nodeswitch",
		Short:        "디렉토리별 node/pnpm 버전 자동 전환",
		SilenceUsage: true,
	}

	defaultCfg := a.CfgPath
	if defaultCfg == "" {
		defaultCfg = filepath.Join(configDir(), "config.toml")
	}
	cmd.PersistentFlags().StringVar(&a.CfgPath, "config", defaultCfg, "설정 파일 경로")
	cmd.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "디버그 로그를 stderr에 출력")

	cmd.AddCommand(
		a.newHookCmd(),
		a.newInitCmd(),
		a.newStatusCmd(),
		a.newDoctorCmd(),
		a.newSetupCmd(),
		a.newCacheCmd(),
	)
	return cmd
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "경고: 홈 디렉토리 확인 실패: %v\n", err)
		return "."
	}
	return home
}

func configDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "nodeswitch")
	}
	return filepath.Join(homeDir(), ".config", "nodeswitch")
}

func (a *App) cachePath() string {
	if a.CachePath != "" {
		return a.CachePath
	}
	if v := os.Getenv("XDG_CACHE_HOME"); v != "" {
		return filepath.Join(v, "nodeswitch", "installed.json")
	}
	return filepath.Join(homeDir(), ".cache", "nodeswitch", "installed.json")
}

func (a *App) envPath() string {
	if a.EnvPath != "" {
		return a.EnvPath
	}
	return filepath.Join(filepath.Dir(a.CfgPath), "env")
}
