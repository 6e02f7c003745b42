// Package logging은 디버그 추적용 zerolog 로거를 생성한다.
// 사용자에게 보이는 안내/경고 메시지는 로그가 아니며 cli 패키지가 출력한다.
package logging

import (
	"io"

	"github.com/rs/zerolog"
)

// New는 debug가 켜져 있으면 w로 출력하는 콘솔 형식 로거를, 아니면 Nop 로거를 반환한다.
// hook의 stdout은 셸이 eval하므로 w는 항상 stderr여야 한다.
func New(w io.Writer, debug bool) zerolog.Logger {
	if !debug {
		return zerolog.Nop()
	}
	out := zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: "15:04:05.000"}
	return zerolog.New(out).
		Level(zerolog.DebugLevel).
		With().
		Timestamp().
		Str("app", "nodeswitch").
		Logger()
}
