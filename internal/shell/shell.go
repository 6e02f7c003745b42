package shell

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// 지원하는 셸.
const (
	Zsh  = "zsh"
	Bash = "bash"
	Fish = "fish"
)

// Supported는 지원하는 셸 목록이다.
var Supported = []string{Zsh, Bash, Fish}

// IsSupported는 shellType이 지원하는 셸인지 확인한다.
func IsSupported(shellType string) bool {
	for _, s := range Supported {
		if s == shellType {
			return true
		}
	}
	return false
}

// Detect는 $SHELL 값에서 셸 이름을 추출한다.
func Detect(shellEnv string) string {
	if shellEnv == "" {
		return ""
	}
	return filepath.Base(shellEnv)
}

// Export는 환경변수 export 명령을 생성한다. 키 순서는 정렬되어 항상 같다.
func Export(env map[string]string, shellType string) string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		switch shellType {
		case Fish:
			fmt.Fprintf(&b, "set -gx %s %s;\n", k, fishQuote(env[k]))
		default: // bash, zsh, sh
			fmt.Fprintf(&b, "export %s=%s;\n", k, posixQuote(env[k]))
		}
	}
	return b.String()
}

// LocalName은 세션 상태 변수를 담는 셸 로컬 변수 이름이다 (NODESWITCH_NODE -> _nodeswitch_node).
func LocalName(key string) string {
	return "_" + strings.ToLower(key)
}

// Session은 세션 상태를 export하지 않는 셸 전역 변수로 설정하는 문장을 생성한다.
// 하위 셸이 상태를 상속하지 않도록 export하지 않는다. 다음 hook 실행에는 스니펫이 환경 변수 접두어로 넘긴다.
func Session(vars map[string]string, shellType string) string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		switch shellType {
		case Fish:
			fmt.Fprintf(&b, "set -g %s %s;\n", LocalName(k), fishQuote(vars[k]))
		case Zsh:
			fmt.Fprintf(&b, "typeset -g %s=%s;\n", LocalName(k), posixQuote(vars[k]))
		default:
			fmt.Fprintf(&b, "%s=%s;\n", LocalName(k), posixQuote(vars[k]))
		}
	}
	return b.String()
}

// posixQuote는 값을 작은따옴표로 감싼다. 내부의 작은따옴표는 '\''로 바꾼다.
func posixQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// fishQuote는 fish 작은따옴표 규칙(\\, \')으로 값을 감싼다.
func fishQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "'", `\'`)
	return "'" + s + "'"
}

// Marker는 RC 파일에 hook이 설치되었는지 판단하는 문자열이다.
const Marker = "nodeswitch shell integration"

// HookSnippet는 셸 디렉토리 변경 hook 스니펫을 반환한다.
// _NODESWITCH_HOOKED 가드로 한 세션에서 두 번 등록되지 않으며, 로드 시 한 번 --force로 실행된다.
// 세션 상태는 셸 로컬 변수에 두고 hook을 부를 때만 환경 변수로 넘긴다.
func HookSnippet(shellType string) string {
	switch shellType {
	case Zsh:
		return `# ` + Marker + ` (zsh)
if [[ -z "${_NODESWITCH_HOOKED:-}" ]]; then
  _NODESWITCH_HOOKED=1
  _nodeswitch_hook() {
    eval "$(NODESWITCH_NODE="${_nodeswitch_node:-}" NODESWITCH_PNPM="${_nodeswitch_pnpm:-}" \
      NODESWITCH_LAST_DIR="${_nodeswitch_last_dir:-}" command nodeswitch hook --shell zsh "$@")"
  }
  autoload -Uz add-zsh-hook
  add-zsh-hook chpwd _nodeswitch_hook
  _nodeswitch_hook --force
fi
`
	case Bash:
		return `# ` + Marker + ` (bash)
if [[ -z "${_NODESWITCH_HOOKED:-}" ]]; then
  _NODESWITCH_HOOKED=1
  _nodeswitch_run() {
    eval "$(NODESWITCH_NODE="${_nodeswitch_node:-}" NODESWITCH_PNPM="${_nodeswitch_pnpm:-}" \
      NODESWITCH_LAST_DIR="${_nodeswitch_last_dir:-}" command nodeswitch hook --shell bash "$@")"
  }
  _nodeswitch_hook() {
    local previous_exit_status=$?
    if [[ "${_NODESWITCH_PWD:-}" != "$PWD" ]]; then
      _NODESWITCH_PWD="$PWD"
      _nodeswitch_run
    fi
    return $previous_exit_status
  }
  _NODESWITCH_PWD="$PWD"
  _nodeswitch_run --force
  PROMPT_COMMAND="_nodeswitch_hook${PROMPT_COMMAND:+;$PROMPT_COMMAND}"
fi
`
	case Fish:
		return `# ` + Marker + ` (fish)
if not set -q _NODESWITCH_HOOKED
  set -g _NODESWITCH_HOOKED 1
  function _nodeswitch_run
    env NODESWITCH_NODE="$_nodeswitch_node" NODESWITCH_PNPM="$_nodeswitch_pnpm" \
      NODESWITCH_LAST_DIR="$_nodeswitch_last_dir" nodeswitch hook --shell fish $argv | source
  end
  function _nodeswitch_hook --on-variable PWD
    _nodeswitch_run
  end
  _nodeswitch_run --force
end
`
	default:
		return ""
	}
}
