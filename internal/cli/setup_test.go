package cli_test

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hbjs97/nodeswitch/internal/cli"
	"github.com/hbjs97/nodeswitch/internal/config"
	"github.com/hbjs97/nodeswitch/internal/setup"
	"github.com/hbjs97/nodeswitch/internal/testutil"
)

type stubForm struct {
	input *setup.SettingsInput
	err   error
}

func (s *stubForm) RunSettingsForm(*setup.SettingsInput) (*setup.SettingsInput, error) {
	return s.input, s.err
}

func (s *stubForm) RunConfirm(string) (bool, error) { return true, nil }

func TestSetupCmd_HasForceFlag(t *testing.T) {
	t.Parallel()

	app := &cli.App{
		Commander: testutil.NewFakeCommander(),
		CfgPath:   "/tmp/test-config.toml",
	}
	cmd := app.NewRootCmd()

	setupCmd, _, err := cmd.Find([]string{"setup"})
	require.NoError(t, err)
	assert.NotNil(t, setupCmd)

	flag := setupCmd.Flags().Lookup("force")
	assert.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)
}

func TestSetupCmd_SavesConfig(t *testing.T) {
	t.Parallel()
	cfgPath := filepath.Join(t.TempDir(), "config.toml")

	fc := testutil.NewFakeCommander()
	fc.DefaultResponse = &testutil.Response{Err: fmt.Errorf("not found")}

	app := &cli.App{
		Commander:  fc,
		CfgPath:    cfgPath,
		FormRunner: &stubForm{input: &setup.SettingsInput{Fallback: config.FallbackDefault, DefaultNode: "lts/*"}},
	}
	cmd := app.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"setup", "--config", cfgPath})

	require.NoError(t, cmd.Execute())

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "lts/*", cfg.DefaultNode)
	assert.Contains(t, buf.String(), "설정 파일이 저장되었습니다")
}

func TestSetupCmd_ForceRemovesExistingConfig(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")

	require.NoError(t, os.WriteFile(cfgPath, []byte("existing content"), 0600))

	app := &cli.App{
		Commander:  testutil.NewFakeCommander(),
		CfgPath:    cfgPath,
		FormRunner: &stubForm{err: fmt.Errorf("aborted")},
	}
	cmd := app.NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetArgs([]string{"setup", "--force", "--config", cfgPath})

	// 폼이 취소되어도 --force는 그 전에 기존 파일을 지운다.
	assert.Error(t, cmd.Execute())

	_, err := os.Stat(cfgPath)
	assert.True(t, os.IsNotExist(err), "config file should have been removed by --force")
}
