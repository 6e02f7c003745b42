package manager

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/hbjs97/nodeswitch/internal/cmdexec"
	"github.com/hbjs97/nodeswitch/internal/filesystem"
	"github.com/hbjs97/nodeswitch/internal/version"
)

// nvm은 셸 함수이므로 bash에서 nvm.sh를 로드한 뒤 호출한다.
// --no-use는 로드 시 기본 버전 활성화를 건너뛴다.
const nvmLoader = `. "$NVM_DIR/nvm.sh" --no-use || exit 127` + "\n"

const nvmPassthrough = `nvm "$@"`

// nvmUseScript는 nvm use 뒤의 환경을 dotenv 형식으로 출력한다.
// $1은 "use", $2는 버전이다.
const nvmUseScript = `nvm use --silent "$2" >/dev/null || exit $?
printf "NVM_BIN='%s'\nNVM_INC='%s'\nPATH='%s'\nNODE_VERSION='%s'\n" "$NVM_BIN" "$NVM_INC" "$PATH" "$(node --version)"`

// nvm use가 설치되지 않은 버전에 대해 반환하는 종료 코드.
const nvmExitNotInstalled = 3

// 스크립트의 $0. 오류 메시지에 표시된다.
const scriptName = "nodeswitch"

// exportedNvmVars는 nvm use 뒤 부모 셸로 넘겨야 하는 변수다.
var exportedNvmVars = []string{"NVM_BIN", "NVM_INC", "PATH"}

var lsVersion = regexp.MustCompile(`\bv(\d+\.\d+\.\d+)\b`)

// Nvm은 nvm-sh를 사용하는 NodeManager다.
type Nvm struct {
	cmd cmdexec.Commander
	fs  filesystem.FileSystem
	dir string
	log zerolog.Logger
}

// NewNvm은 dir(NVM_DIR)에 설치된 nvm을 사용하는 Nvm을 생성한다.
func NewNvm(cmd cmdexec.Commander, fsys filesystem.FileSystem, dir string, log zerolog.Logger) *Nvm {
	return &Nvm{cmd: cmd, fs: fsys, dir: dir, log: log}
}

// Name은 "nvm"을 반환한다.
func (n *Nvm) Name() string { return "nvm" }

// Dir는 NVM_DIR 경로를 반환한다.
func (n *Nvm) Dir() string { return n.dir }

// Available은 nvm.sh가 존재하는지 확인한다.
func (n *Nvm) Available() bool {
	info, err := n.fs.Stat(filepath.Join(n.dir, "nvm.sh"))
	return err == nil && !info.IsDir()
}

// Installed는 `nvm ls`로 설치된 버전을 조회한다.
func (n *Nvm) Installed(ctx context.Context) ([]string, error) {
	out, err := n.run(ctx, nvmPassthrough, "ls", "--no-colors", "--no-alias")
	if err != nil {
		return nil, fmt.Errorf("manager.Nvm.Installed: %w", err)
	}
	var found []string
	for _, line := range strings.Split(string(out), "\n") {
		if m := lsVersion.FindStringSubmatch(line); m != nil {
			found = append(found, m[1])
		}
	}
	return version.Sort(found), nil
}

// ResolveAlias는 `nvm version <alias>`로 별칭을 설치된 버전으로 해석한다.
// nvm version은 로컬 설치본만 보므로 네트워크에 접근하지 않는다.
func (n *Nvm) ResolveAlias(ctx context.Context, alias string) (string, error) {
	out, err := n.run(ctx, nvmPassthrough, "version", alias)
	if err != nil {
		return "", fmt.Errorf("manager.Nvm.ResolveAlias: %w", err)
	}
	raw := strings.TrimSpace(string(out))
	if raw == "" || raw == "N/A" {
		return "", fmt.Errorf("manager.Nvm.ResolveAlias: %w: %s", ErrNotInstalled, alias)
	}
	v, ok := version.Normalize(raw)
	if !ok {
		return "", fmt.Errorf("manager.Nvm.ResolveAlias: %s -> %q는 버전이 아닙니다", alias, raw)
	}
	return v, nil
}

// Use는 nvm use를 서브셸에서 실행하고 그 결과 환경을 캡처한다.
// 서브셸의 node --version이 목표와 같아야 성공이다.
func (n *Nvm) Use(ctx context.Context, target string) (Activation, error) {
	out, err := n.run(ctx, nvmUseScript, "use", target)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == nvmExitNotInstalled {
			return Activation{}, fmt.Errorf("manager.Nvm.Use: %w: node %s", ErrNotInstalled, target)
		}
		return Activation{}, fmt.Errorf("manager.Nvm.Use: %w", err)
	}

	env, err := godotenv.Unmarshal(string(out))
	if err != nil {
		return Activation{}, fmt.Errorf("manager.Nvm.Use: nvm 출력 파싱 실패: %w", err)
	}

	got, ok := version.Normalize(env["NODE_VERSION"])
	if !ok || got != target {
		return Activation{}, fmt.Errorf("manager.Nvm.Use: %w: 목표 %s, 실제 %q",
			ErrVersionMismatch, target, env["NODE_VERSION"])
	}

	act := Activation{Version: got, Env: make(map[string]string, len(exportedNvmVars))}
	for _, k := range exportedNvmVars {
		if v, ok := env[k]; ok {
			act.Env[k] = v
		}
	}
	n.log.Debug().Str("version", got).Str("nvm_bin", act.Env["NVM_BIN"]).Msg("nvm use 완료")
	return act, nil
}

// Version은 nvm 자체의 버전을 반환한다.
func (n *Nvm) Version(ctx context.Context) (string, error) {
	out, err := n.run(ctx, nvmPassthrough, "--version")
	if err != nil {
		return "", fmt.Errorf("manager.Nvm.Version: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Fingerprint는 설치/별칭 디렉토리의 수정 시각으로 만든 식별자다.
// nvm install, nvm uninstall, nvm alias가 실행되면 값이 바뀐다.
func (n *Nvm) Fingerprint() string {
	var parts []string
	for _, rel := range []string{"versions/node", "alias", "alias/lts"} {
		info, err := n.fs.Stat(filepath.Join(n.dir, filepath.FromSlash(rel)))
		if err != nil {
			continue
		}
		parts = append(parts, rel+"@"+strconv.FormatInt(info.ModTime().UnixNano(), 10))
	}
	if len(parts) == 0 {
		return ""
	}
	return n.dir + "|" + strings.Join(parts, ",")
}

func (n *Nvm) run(ctx context.Context, body string, args ...string) ([]byte, error) {
	argv := append([]string{"-c", nvmLoader + body, scriptName}, args...)
	n.log.Debug().Strs("args", args).Msg("nvm 실행")

	out, err := n.cmd.RunWithEnv(ctx, map[string]string{"NVM_DIR": n.dir}, "bash", argv...)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 127 {
			return out, fmt.Errorf("%w: %s/nvm.sh", ErrUnavailable, n.dir)
		}
		return out, err
	}
	return out, nil
}
