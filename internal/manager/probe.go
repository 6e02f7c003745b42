package manager

import (
	"context"
	"fmt"
	"strings"

	"github.com/hbjs97/nodeswitch/internal/cmdexec"
	"github.com/hbjs97/nodeswitch/internal/version"
)

// offlineCorepackEnv는 pnpm shim이 네트워크에 접근하거나 packageManager 필드 때문에
// 실행을 거부하지 않도록 하는 corepack 설정이다.
var offlineCorepackEnv = map[string]string{
	"COREPACK_ENABLE_NETWORK":         "0",
	"COREPACK_ENABLE_STRICT":          "0",
	"COREPACK_ENABLE_DOWNLOAD_PROMPT": "0",
}

// Probe는 현재 PATH에서 실제로 실행되는 node / pnpm 버전을 조회한다.
type Probe struct {
	cmd cmdexec.Commander
}

// NewProbe는 새 Probe를 생성한다.
func NewProbe(cmd cmdexec.Commander) *Probe {
	return &Probe{cmd: cmd}
}

// Node는 `node --version`의 결과를 정규화해 반환한다.
func (p *Probe) Node(ctx context.Context, env map[string]string) (string, error) {
	out, err := p.cmd.RunWithEnv(ctx, env, "node", "--version")
	if err != nil {
		return "", fmt.Errorf("manager.Probe.Node: %w: %v", ErrUnavailable, err)
	}
	return parseVersionOutput("node", out)
}

// PackageManager는 `pnpm --version`의 결과를 반환한다. corepack shim이 다운로드하지 않도록 오프라인으로 실행한다.
func (p *Probe) PackageManager(ctx context.Context, env map[string]string) (string, error) {
	out, err := p.cmd.RunWithEnv(ctx, mergeEnv(env, offlineCorepackEnv), "pnpm", "--version")
	if err != nil {
		return "", fmt.Errorf("manager.Probe.PackageManager: %w: %v", ErrUnavailable, err)
	}
	return parseVersionOutput("pnpm", out)
}

func parseVersionOutput(tool string, out []byte) (string, error) {
	line := strings.TrimSpace(string(out))
	if i := strings.LastIndexByte(line, '\n'); i >= 0 {
		line = strings.TrimSpace(line[i+1:])
	}
	v, ok := version.Normalize(line)
	if !ok {
		return "", fmt.Errorf("manager: %s 버전을 해석할 수 없습니다: %q", tool, line)
	}
	return v, nil
}
