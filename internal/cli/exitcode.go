package cli

import (
	"errors"
)

// ExitCode는 nodeswitch의 종료 코드다. hook 명령은 항상 0으로 끝난다.
type ExitCode int

const (
	// ExitSuccess는 정상 종료다.
	ExitSuccess ExitCode = 0
	// ExitGeneral는 일반 에러다.
	ExitGeneral ExitCode = 1
	// ExitUsage는 지원하지 않는 셸 등 잘못된 사용이다.
	ExitUsage ExitCode = 2
	// ExitInvalidSpec는 잘못된 버전 선언이다.
	ExitInvalidSpec ExitCode = 3
	// ExitNotInstalled는 선언된 버전이 설치되어 있지 않음이다.
	ExitNotInstalled ExitCode = 4
	// ExitConfigError는 설정 파일 오류다.
	ExitConfigError ExitCode = 5
	// ExitMissingDependency는 nvm 등 필수 도구를 사용할 수 없음이다.
	ExitMissingDependency ExitCode = 6
)

// MapExitCode는 sentinel error를 기반으로 적절한 종료 코드를 반환한다.
func MapExitCode(err error) ExitCode {
	if err == nil {
		return ExitSuccess
	}
	switch {
	case errors.Is(err, ErrUnsupportedShell):
		return ExitUsage
	case errors.Is(err, ErrInvalidSpec):
		return ExitInvalidSpec
	case errors.Is(err, ErrNotInstalled), errors.Is(err, ErrNoMatch):
		return ExitNotInstalled
	case errors.Is(err, ErrConfig):
		return ExitConfigError
	case errors.Is(err, ErrUnavailable):
		return ExitMissingDependency
	default:
		return ExitGeneral
	}
}
