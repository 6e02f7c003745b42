package cli

import (
	"errors"

	"github.com/hbjs97/nodeswitch/internal/config"
	"github.com/hbjs97/nodeswitch/internal/manager"
	"github.com/hbjs97/nodeswitch/internal/resolver"
	"github.com/hbjs97/nodeswitch/internal/version"
)

// ErrUnsupportedShell은 hook 스니펫이 없는 셸을 요청했을 때의 sentinel error다.
var ErrUnsupportedShell = errors.New("지원하지 않는 셸")

// 각 도메인 패키지의 sentinel error를 CLI 레이어에서 편의상 re-export한다.
var (
	// ErrConfig는 설정 파일 오류를 나타내는 sentinel error다.
	ErrConfig = config.ErrConfig
	// ErrInvalidSpec은 해석할 수 없는 버전 문자열이다.
	ErrInvalidSpec = version.ErrInvalidSpec
	// ErrNotInstalled는 선언된 버전이 설치되어 있지 않을 때의 sentinel error다.
	ErrNotInstalled = manager.ErrNotInstalled
	// ErrNoMatch는 범위를 만족하는 설치 버전이 없을 때의 sentinel error다.
	ErrNoMatch = resolver.ErrNoMatch
	// ErrUnavailable은 nvm 같은 버전 관리자를 로드할 수 없을 때의 sentinel error다.
	ErrUnavailable = manager.ErrUnavailable
)
