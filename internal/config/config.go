package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// ErrConfig는 설정 파일 오류를 나타내는 sentinel error다.
var ErrConfig = errors.New("설정 파일 오류")

// fallback 정책 값.
const (
	// FallbackKeep은 선언이 없을 때 현재 버전을 유지한다.
	FallbackKeep = "keep"
	// FallbackDefault는 선언이 없을 때 전역 기본 버전으로 되돌린다.
	FallbackDefault = "default"
)

const (
	envFallback    = "NODESWITCH_FALLBACK"
	envDefaultNode = "NODESWITCH_DEFAULT_NODE"
	envDefaultPnpm = "NODESWITCH_DEFAULT_PNPM"
	envQuiet       = "NODESWITCH_QUIET"
	envDebug       = "NODESWITCH_DEBUG"
)

const (
	defaultWorkspaceFile = ".nodeswitch.yaml"
	defaultHookTimeout   = 5 * time.Second
)

// Config는 nodeswitch 설정 파일의 최상위 구조체다.
type Config struct {
	Version         int      `toml:"version"`
	Fallback        string   `toml:"fallback"`
	DefaultNode     string   `toml:"default_node"`
	DefaultPnpm     string   `toml:"default_pnpm"`
	WorkspaceFile   string   `toml:"workspace_file"`
	BoundaryMarkers []string `toml:"boundary_markers"`
	ManagePnpm      *bool    `toml:"manage_pnpm"`
	NvmDir          string   `toml:"nvm_dir"`
	CorepackHome    string   `toml:"corepack_home"`
	HookTimeout     string   `toml:"hook_timeout"`
	Quiet           bool     `toml:"quiet"`
	Debug           bool     `toml:"debug"`
}

// Default는 설정 파일이 없을 때 사용하는 기본 설정을 반환한다.
func Default() *Config {
	cfg := &Config{Version: 1, WorkspaceFile: defaultWorkspaceFile}
	cfg.applyDefaults()
	return cfg
}

// Load는 config.toml을 파싱하여 Config를 반환한다.
// 파일이 없으면 기본 설정을 반환한다. hook은 설정 없이도 동작해야 한다.
func Load(path string) (*Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("config.Load: %w: %v", ErrConfig, err)
	}
	// workspace_file = "" 은 워크스페이스 탐색을 끈다. 키가 없을 때만 기본값을 쓴다.
	if !md.IsDefined("workspace_file") {
		cfg.WorkspaceFile = defaultWorkspaceFile
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadEnvFile은 dotenv 형식의 파일을 읽어 환경변수로 설정한다.
// 이미 설정된 환경변수는 덮어쓰지 않으며, 파일이 없으면 무시한다.
func LoadEnvFile(path string) error {
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}

	var pathErr *os.PathError
	if errors.As(err, &pathErr) && errors.Is(pathErr.Err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("config.LoadEnvFile: %w", err)
}

// ApplyEnv는 NODESWITCH_* 환경변수로 설정값을 덮어쓴다.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookupTrimmed(lookup, envFallback); ok {
		c.Fallback = v
	}
	if v, ok := lookupTrimmed(lookup, envDefaultNode); ok {
		c.DefaultNode = v
	}
	if v, ok := lookupTrimmed(lookup, envDefaultPnpm); ok {
		c.DefaultPnpm = v
	}
	if v, ok := lookupTrimmed(lookup, envQuiet); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config.ApplyEnv: %w: %s=%q", ErrConfig, envQuiet, v)
		}
		c.Quiet = b
	}
	if v, ok := lookupTrimmed(lookup, envDebug); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config.ApplyEnv: %w: %s=%q", ErrConfig, envDebug, v)
		}
		c.Debug = b
	}
	return c.validate()
}

// IsManagePnpm는 manage_pnpm 설정값을 반환한다.
func (c *Config) IsManagePnpm() bool {
	if c.ManagePnpm == nil {
		return true
	}
	return *c.ManagePnpm
}

// Timeout은 hook 한 번의 실행에 허용되는 최대 시간이다.
func (c *Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.HookTimeout)
	if err != nil || d <= 0 {
		return defaultHookTimeout
	}
	return d
}

// ResolvedNvmDir는 nvm 설치 디렉토리를 반환한다 (설정 > $NVM_DIR > ~/.nvm).
func (c *Config) ResolvedNvmDir() string {
	if c.NvmDir != "" {
		return expandHome(c.NvmDir)
	}
	if v := os.Getenv("NVM_DIR"); v != "" {
		return v
	}
	return filepath.Join(homeDir(), ".nvm")
}

// ResolvedCorepackHome은 corepack 캐시 디렉토리를 반환한다
// (설정 > $COREPACK_HOME > $XDG_CACHE_HOME/node/corepack > ~/.cache/node/corepack).
func (c *Config) ResolvedCorepackHome() string {
	if c.CorepackHome != "" {
		return expandHome(c.CorepackHome)
	}
	if v := os.Getenv("COREPACK_HOME"); v != "" {
		return v
	}
	if v := os.Getenv("XDG_CACHE_HOME"); v != "" {
		return filepath.Join(v, "node", "corepack")
	}
	return filepath.Join(homeDir(), ".cache", "node", "corepack")
}

func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Fallback == "" {
		c.Fallback = FallbackKeep
	}
	if c.ManagePnpm == nil {
		t := true
		c.ManagePnpm = &t
	}
	if c.HookTimeout == "" {
		c.HookTimeout = defaultHookTimeout.String()
	}
}

func (c *Config) validate() error {
	switch c.Fallback {
	case FallbackKeep, FallbackDefault:
	default:
		return fmt.Errorf("config.Load: %w: fallback은 %q 또는 %q 이어야 합니다: %q",
			ErrConfig, FallbackKeep, FallbackDefault, c.Fallback)
	}
	if c.Fallback == FallbackDefault && c.DefaultNode == "" && c.DefaultPnpm == "" {
		return fmt.Errorf("config.Load: %w: fallback = %q 에는 default_node 또는 default_pnpm이 필요합니다",
			ErrConfig, FallbackDefault)
	}
	if strings.ContainsRune(c.WorkspaceFile, filepath.Separator) {
		return fmt.Errorf("config.Load: %w: workspace_file은 파일 이름이어야 합니다: %q", ErrConfig, c.WorkspaceFile)
	}
	if d, err := time.ParseDuration(c.HookTimeout); err != nil || d <= 0 {
		return fmt.Errorf("config.Load: %w: hook_timeout이 올바르지 않습니다: %q", ErrConfig, c.HookTimeout)
	}
	return nil
}

func lookupTrimmed(lookup func(string) (string, bool), key string) (string, bool) {
	value, ok := lookup(key)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(value), true
}

func expandHome(p string) string {
	if p == "~" {
		return homeDir()
	}
	if strings.HasPrefix(p, "~/") {
		return filepath.Join(homeDir(), p[2:])
	}
	return p
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
