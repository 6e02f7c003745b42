package cli_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hbjs97/nodeswitch/internal/cli"
	"github.com/hbjs97/nodeswitch/internal/testutil"
)

// writeTestConfig는 nvm_dir을 임시 경로로 지정한 config.toml을 만든다.
func writeTestConfig(t *testing.T, dir string, extra string) string {
	t.Helper()
	cfg := fmt.Sprintf("version = 1\nnvm_dir = %q\ncorepack_home = %q\n%s",
		filepath.Join(dir, "nvm"), filepath.Join(dir, "corepack"), extra)
	cfgPath := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0600))
	return cfgPath
}

func envLookup(env map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
}

// newTestApp creates an App with a FakeCommander and the given config path.
func newTestApp(t *testing.T, fc *testutil.FakeCommander, cfgPath string, env map[string]string) *cli.App {
	t.Helper()
	if env == nil {
		env = map[string]string{}
	}
	return &cli.App{
		Commander: fc,
		CfgPath:   cfgPath,
		CachePath: filepath.Join(t.TempDir(), "installed.json"),
		LookupEnv: envLookup(env),
	}
}

func execute(t *testing.T, app *cli.App, args ...string) (string, string, error) {
	t.Helper()
	cmd := app.NewRootCmd()
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// --- hook command tests ---

func TestHookCmd_SwitchesNodeFromNvmrc(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	cfgPath := writeTestConfig(t, root, "manage_pnpm = false\n")
	project := filepath.Join(root, "proj")
	testutil.WriteFiles(t, project, map[string]string{".nvmrc": "20\n"})
	binDir := filepath.Join(root, "nvm", "versions", "node", "v20.10.0", "bin")

	fc := testutil.NewFakeCommander()
	fc.RegisterContains("nodeswitch ls", testutil.NvmLsOutput("18.20.0", "20.10.0"), nil)
	fc.RegisterContains("nodeswitch use 20.10.0", testutil.NvmUseOutput("20.10.0", binDir), nil)

	app := newTestApp(t, fc, cfgPath, map[string]string{
		"NODESWITCH_NODE":     "18.20.0",
		"NODESWITCH_LAST_DIR": root,
	})

	stdout, stderr, err := execute(t, app, "hook", "--shell", "zsh", "--dir", project)

	require.NoError(t, err)
	assert.Contains(t, stdout, "typeset -g _nodeswitch_node='20.10.0';")
	assert.Contains(t, stdout, fmt.Sprintf("typeset -g _nodeswitch_last_dir='%s';", project))
	assert.Contains(t, stdout, fmt.Sprintf("export NVM_BIN='%s';", binDir))
	assert.Contains(t, stdout, "export PATH=")
	assert.NotContains(t, stdout, "export NODESWITCH_", "session state is never exported")
	assert.Contains(t, stderr, "node 18.20.0 -> 20.10.0 (.nvmrc)")
	assert.NotContains(t, stdout, "nodeswitch:", "messages never go to stdout")
}

func TestHookCmd_SameDirectoryIsSilent(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	cfgPath := writeTestConfig(t, root, "")
	fc := testutil.NewFakeCommander()

	app := newTestApp(t, fc, cfgPath, map[string]string{
		"NODESWITCH_NODE":     "20.10.0",
		"NODESWITCH_LAST_DIR": root,
	})

	stdout, stderr, err := execute(t, app, "hook", "--shell", "bash", "--dir", root)

	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Empty(t, stderr)
	assert.Empty(t, fc.Calls)
}

func TestHookCmd_ForceReevaluates(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	cfgPath := writeTestConfig(t, root, "manage_pnpm = false\n")
	fc := testutil.NewFakeCommander()
	fc.Register("node --version", "v18.20.0\n", nil)

	// 부모 셸에서 넘어온 값보다 실제로 실행 중인 node가 우선한다.
	app := newTestApp(t, fc, cfgPath, map[string]string{
		"NODESWITCH_NODE":     "20.10.0",
		"NODESWITCH_LAST_DIR": root,
	})

	stdout, _, err := execute(t, app, "hook", "--shell", "fish", "--dir", root, "--force")

	require.NoError(t, err)
	assert.Contains(t, stdout, fmt.Sprintf("set -g _nodeswitch_last_dir '%s';", root))
	assert.Contains(t, stdout, "set -g _nodeswitch_node '18.20.0';")
	assert.NotContains(t, stdout, "set -gx", "session state is never exported")
	assert.Equal(t, 1, fc.CallCount("node --version"))
}

func TestHookCmd_NotInstalledWarnsAndKeepsState(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	cfgPath := writeTestConfig(t, root, "manage_pnpm = false\n")
	project := filepath.Join(root, "legacy")
	testutil.WriteFiles(t, project, map[string]string{".nvmrc": "14.21.3\n"})

	fc := testutil.NewFakeCommander()
	fc.RegisterContains("nodeswitch ls", testutil.NvmLsOutput("18.20.0"), nil)

	app := newTestApp(t, fc, cfgPath, map[string]string{"NODESWITCH_NODE": "18.20.0"})

	stdout, stderr, err := execute(t, app, "hook", "--shell", "zsh", "--dir", project)

	require.NoError(t, err)
	assert.Contains(t, stdout, "typeset -g _nodeswitch_node='18.20.0';")
	assert.Contains(t, stderr, "경고:")
	assert.Contains(t, stderr, "nvm install 14.21.3")
	assert.Equal(t, 0, fc.CallCountContaining("nodeswitch use"))
}

func TestHookCmd_SwitchesPnpmFromPackageManager(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	cfgPath := writeTestConfig(t, root, "")
	project := filepath.Join(root, "web")
	testutil.WriteFiles(t, project, map[string]string{
		"package.json": `{"name":"web","packageManager":"pnpm@9.1.0"}`,
	})

	fc := testutil.NewFakeCommander()
	fc.Register("corepack prepare pnpm@9.1.0 --activate", "", nil)
	fc.Register("pnpm --version", "9.1.0\n", nil)

	app := newTestApp(t, fc, cfgPath, map[string]string{
		"NODESWITCH_NODE": "20.10.0",
		"NODESWITCH_PNPM": "8.15.4",
	})

	stdout, stderr, err := execute(t, app, "hook", "--shell", "zsh", "--dir", project)

	require.NoError(t, err)
	assert.Contains(t, stdout, "typeset -g _nodeswitch_pnpm='9.1.0';")
	assert.Contains(t, stderr, "pnpm 8.15.4 -> 9.1.0 (package.json)")
	assert.Equal(t, "0", fc.EnvCalls[0]["COREPACK_ENABLE_NETWORK"])
}

func TestHookCmd_QuietSuppressesInfoOnly(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	cfgPath := writeTestConfig(t, root, "manage_pnpm = false\nquiet = true\n")
	project := filepath.Join(root, "proj")
	testutil.WriteFiles(t, project, map[string]string{".nvmrc": "20.10.0\n"})

	fc := testutil.NewFakeCommander()
	fc.RegisterContains("nodeswitch ls", testutil.NvmLsOutput("20.10.0"), nil)
	fc.RegisterContains("nodeswitch use 20.10.0", testutil.NvmUseOutput("20.10.0", "/bin20"), nil)

	app := newTestApp(t, fc, cfgPath, map[string]string{"NODESWITCH_NODE": "18.20.0"})

	stdout, stderr, err := execute(t, app, "hook", "--shell", "zsh", "--dir", project)

	require.NoError(t, err)
	assert.Contains(t, stdout, "typeset -g _nodeswitch_node='20.10.0';")
	assert.Empty(t, stderr)
}

func TestHookCmd_BadConfigStillEmitsShell(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	cfgPath := filepath.Join(root, "config.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("this is not toml ==="), 0600))

	fc := testutil.NewFakeCommander()
	fc.DefaultResponse = &testutil.Response{Err: fmt.Errorf("unavailable")}

	app := newTestApp(t, fc, cfgPath, map[string]string{"NODESWITCH_NODE": "20.10.0", "NODESWITCH_PNPM": "8.15.4"})

	stdout, stderr, err := execute(t, app, "hook", "--shell", "zsh", "--dir", root)

	require.NoError(t, err)
	assert.Contains(t, stderr, "설정을 읽을 수 없어 기본값을 사용합니다")
	assert.Contains(t, stdout, fmt.Sprintf("typeset -g _nodeswitch_last_dir='%s';", root))
}

func TestHookCmd_EnvOverridesFallback(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	cfgPath := writeTestConfig(t, root, "manage_pnpm = false\n")

	fc := testutil.NewFakeCommander()
	fc.RegisterContains("nodeswitch ls", testutil.NvmLsOutput("18.20.0", "20.10.0"), nil)
	fc.RegisterContains("nodeswitch use 18.20.0", testutil.NvmUseOutput("18.20.0", "/bin18"), nil)

	app := newTestApp(t, fc, cfgPath, map[string]string{
		"NODESWITCH_NODE":         "20.10.0",
		"NODESWITCH_FALLBACK":     "default",
		"NODESWITCH_DEFAULT_NODE": "18",
	})

	stdout, stderr, err := execute(t, app, "hook", "--shell", "zsh", "--dir", root)

	require.NoError(t, err)
	assert.Contains(t, stdout, "typeset -g _nodeswitch_node='18.20.0';")
	assert.Contains(t, stderr, "node 20.10.0 -> 18.20.0 (default)")
}

// --- init command tests ---

func TestInitCmd_PrintsSnippet(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, testutil.NewFakeCommander(), "/tmp/config.toml", nil)
	stdout, _, err := execute(t, app, "init", "zsh")

	require.NoError(t, err)
	assert.Contains(t, stdout, "nodeswitch shell integration (zsh)")
	assert.Contains(t, stdout, "add-zsh-hook chpwd")
}

func TestInitCmd_DetectsShellFromEnv(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, testutil.NewFakeCommander(), "/tmp/config.toml", map[string]string{"SHELL": "/usr/bin/fish"})
	stdout, _, err := execute(t, app, "init")

	require.NoError(t, err)
	assert.Contains(t, stdout, "--on-variable PWD")
}

func TestInitCmd_UnsupportedShell(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, testutil.NewFakeCommander(), "/tmp/config.toml", nil)
	_, _, err := execute(t, app, "init", "tcsh")

	require.Error(t, err)
	assert.ErrorIs(t, err, cli.ErrUnsupportedShell)
	assert.Equal(t, cli.ExitUsage, cli.MapExitCode(err))
}

// --- status command tests ---

func TestStatusCmd_ShowsPlanWithoutSwitching(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	cfgPath := writeTestConfig(t, root, "manage_pnpm = false\n")
	project := filepath.Join(root, "proj")
	testutil.WriteFiles(t, project, map[string]string{".nvmrc": "lts/iron\n"})

	fc := testutil.NewFakeCommander()
	fc.RegisterContains("nodeswitch version lts/iron", "v20.10.0\n", nil)

	app := newTestApp(t, fc, cfgPath, map[string]string{"NODESWITCH_NODE": "18.20.0"})

	stdout, _, err := execute(t, app, "status", project)

	require.NoError(t, err)
	assert.Contains(t, stdout, "디렉토리: "+project)
	assert.Contains(t, stdout, "node: 18.20.0 -> 20.10.0 (.nvmrc, "+filepath.Join(project, ".nvmrc")+") 전환 예정")
	assert.Contains(t, stdout, "node=lts/iron")
	assert.Equal(t, 0, fc.CallCountContaining("nodeswitch use"))
}

func TestStatusCmd_NoDeclarations(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	cfgPath := writeTestConfig(t, root, "manage_pnpm = false\n")
	app := newTestApp(t, testutil.NewFakeCommander(), cfgPath, map[string]string{"NODESWITCH_NODE": "20.10.0"})

	stdout, _, err := execute(t, app, "status", root)

	require.NoError(t, err)
	assert.Contains(t, stdout, "node: 20.10.0 (유지)")
	assert.Contains(t, stdout, "선언 파일 없음")
}

func TestStatusCmd_JSON(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	cfgPath := writeTestConfig(t, root, "manage_pnpm = false\n")
	project := filepath.Join(root, "proj")
	testutil.WriteFiles(t, project, map[string]string{".nvmrc": "banana\n"})

	app := newTestApp(t, testutil.NewFakeCommander(), cfgPath, map[string]string{"NODESWITCH_NODE": "20.10.0"})

	stdout, _, err := execute(t, app, "status", "--json", project)
	require.Error(t, err)
	assert.Equal(t, cli.ExitInvalidSpec, cli.MapExitCode(err))

	var got struct {
		Dir          string                    `json:"dir"`
		Current      struct{ Node string }     `json:"current"`
		Node         *struct{ Version string } `json:"node"`
		Declarations []struct {
			Source string `json:"source"`
			Node   string `json:"node"`
		} `json:"declarations"`
		Warnings []string `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, project, got.Dir)
	assert.Equal(t, "20.10.0", got.Current.Node)
	assert.Nil(t, got.Node)
	require.Len(t, got.Declarations, 1)
	assert.Equal(t, ".nvmrc", got.Declarations[0].Source)
	assert.Equal(t, "banana", got.Declarations[0].Node)
	assert.Len(t, got.Warnings, 1)
}

func TestStatusCmd_NotInstalledExitCode(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	cfgPath := writeTestConfig(t, root, "manage_pnpm = false\n")
	project := filepath.Join(root, "legacy")
	testutil.WriteFiles(t, project, map[string]string{".nvmrc": "14.21.3\n"})

	fc := testutil.NewFakeCommander()
	fc.RegisterContains("nodeswitch ls", testutil.NvmLsOutput("18.20.0"), nil)

	app := newTestApp(t, fc, cfgPath, map[string]string{"NODESWITCH_NODE": "18.20.0"})
	stdout, _, err := execute(t, app, "status", project)

	require.Error(t, err)
	assert.Equal(t, cli.ExitNotInstalled, cli.MapExitCode(err))
	assert.Contains(t, stdout, "경고:")
	assert.Contains(t, stdout, "nvm install 14.21.3")
}

func TestStatusCmd_BadConfig(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	cfgPath := filepath.Join(root, "config.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`fallback = "sometimes"`), 0600))

	app := newTestApp(t, testutil.NewFakeCommander(), cfgPath, nil)
	_, _, err := execute(t, app, "status", root)

	require.Error(t, err)
	assert.Equal(t, cli.ExitConfigError, cli.MapExitCode(err))
}

// --- doctor command tests ---

func TestDoctorCmd_ReportsMissingNvm(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	cfgPath := writeTestConfig(t, root, "")

	fc := testutil.NewFakeCommander()
	fc.Register("bash --version", "GNU bash, version 5.2.15", nil)
	fc.Register("node --version", "v20.10.0", nil)
	fc.Register("corepack --version", "0.24.0", nil)
	fc.Register("pnpm --version", "8.15.4", nil)

	app := newTestApp(t, fc, cfgPath, map[string]string{"SHELL": "/bin/zsh"})
	stdout, _, err := execute(t, app, "doctor")

	require.Error(t, err)
	assert.Equal(t, cli.ExitMissingDependency, cli.MapExitCode(err))
	assert.Contains(t, err.Error(), "nvm")
	assert.Contains(t, stdout, "[OK] bash: GNU bash, version 5.2.15")
	assert.Contains(t, stdout, "[FAIL] nvm:")
	assert.Contains(t, stdout, "[OK] pnpm: pnpm 8.15.4")
	assert.Contains(t, stdout, "[OK] session:")
	assert.Contains(t, stdout, "Fix:")
}

func TestDoctorCmd_WarnsAboutExportedSessionState(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	cfgPath := writeTestConfig(t, root, "")

	fc := testutil.NewFakeCommander()
	fc.DefaultResponse = &testutil.Response{Output: []byte("ok")}

	app := newTestApp(t, fc, cfgPath, map[string]string{
		"SHELL":           "/bin/zsh",
		"NODESWITCH_NODE": "20.10.0",
	})
	stdout, _, _ := execute(t, app, "doctor")

	assert.Contains(t, stdout, "[!!] session: 세션 변수가 export됨: NODESWITCH_NODE")
}

func TestDoctorCmd_BadConfigReportedAsFailure(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	cfgPath := filepath.Join(root, "config.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`hook_timeout = "soon"`), 0600))

	fc := testutil.NewFakeCommander()
	fc.DefaultResponse = &testutil.Response{Output: []byte("ok")}

	app := newTestApp(t, fc, cfgPath, nil)
	stdout, _, err := execute(t, app, "doctor")

	require.Error(t, err)
	assert.Equal(t, cli.ExitConfigError, cli.MapExitCode(err))
	assert.Contains(t, stdout, "[FAIL] config:")
}

// --- cache command tests ---

func TestCacheCmd_ClearAndPath(t *testing.T) {
	t.Parallel()

	fc := testutil.NewFakeCommander()
	app := newTestApp(t, fc, "/tmp/config.toml", nil)
	cachePath := app.CachePath
	require.NoError(t, os.WriteFile(cachePath, []byte(`{"version":1,"entries":{"installed:nvm":{"versions":["20.10.0"],"resolved_at":"2026-01-01T00:00:00Z","fingerprint":"x"}}}`), 0600))

	stdout, _, err := execute(t, app, "cache", "clear")
	require.NoError(t, err)
	assert.Contains(t, stdout, cachePath)

	data, err := os.ReadFile(cachePath)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "installed:nvm")

	stdout, _, err = execute(t, app, "cache", "path")
	require.NoError(t, err)
	assert.Equal(t, cachePath+"\n", stdout)
}

// --- root command tests ---

func TestRootCmd_VerboseFlag(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, testutil.NewFakeCommander(), "/tmp/config.toml", nil)
	_, _, err := execute(t, app, "--verbose", "--help")
	require.NoError(t, err)
}

func TestRootCmd_VerboseLogsToStderr(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	cfgPath := writeTestConfig(t, root, "manage_pnpm = false\n")
	app := newTestApp(t, testutil.NewFakeCommander(), cfgPath, map[string]string{"NODESWITCH_NODE": "20.10.0"})

	stdout, stderr, err := execute(t, app, "--verbose", "hook", "--shell", "zsh", "--dir", root)

	require.NoError(t, err)
	assert.NotEmpty(t, stderr)
	assert.NotContains(t, stdout, "app=nodeswitch")
}

func TestNewApp(t *testing.T) {
	t.Parallel()

	app := cli.NewApp()
	assert.NotNil(t, app)
	assert.NotNil(t, app.Commander)
	assert.NotNil(t, app.FS)
	assert.NotNil(t, app.FormRunner)
}
