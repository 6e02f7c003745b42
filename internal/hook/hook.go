// Package hook은 디렉토리 변경마다 실행되는 진입점이다.
// 탐색, 추출, 판정, 전환을 순서대로 조율하며 어떤 오류도 디렉토리 이동을 막지 않는다.
package hook

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hbjs97/nodeswitch/internal/locator"
	"github.com/hbjs97/nodeswitch/internal/resolver"
	"github.com/hbjs97/nodeswitch/internal/state"
	"github.com/hbjs97/nodeswitch/internal/switcher"
	"github.com/hbjs97/nodeswitch/internal/version"
)

// Level은 사용자 메시지 수준이다.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
)

// Message는 셸에 표시할 한 줄이다.
type Message struct {
	Level Level
	Text  string
}

// Report는 hook 한 번의 실행 결과다.
type Report struct {
	Dir          string
	Skipped      bool
	Located      locator.Result
	Declarations []version.Declaration
	Resolution   resolver.Resolution
	Decision     resolver.Decision
	Switch       switcher.Result
	Messages     []Message
	// Exports는 전환으로 바뀌어 부모 셸에 export할 환경이다 (PATH, NVM_BIN 등).
	Exports map[string]string
	// Session은 셸 로컬 변수로 보관할 세션 상태다. export하지 않는다.
	Session map[string]string
}

// Hook은 디렉토리 변경 처리기다.
type Hook struct {
	locator  *locator.Locator
	resolver *resolver.Resolver
	executor *switcher.Executor
	tracker  *state.Tracker
	managePM bool
	log      zerolog.Logger
}

// New는 새 Hook을 생성한다.
func New(
	loc *locator.Locator,
	res *resolver.Resolver,
	exec *switcher.Executor,
	tracker *state.Tracker,
	managePackageManager bool,
	log zerolog.Logger,
) *Hook {
	return &Hook{
		locator:  loc,
		resolver: res,
		executor: exec,
		tracker:  tracker,
		managePM: managePackageManager,
		log:      log,
	}
}

// Run은 dir에 대해 hook을 실행한다.
//
//  1. dir가 마지막으로 평가한 디렉토리와 같으면 건너뛴다 (force면 무시).
//     force는 세션 시작을 뜻하므로 전달된 상태를 믿지 않고 실제 버전을 다시 조회한다.
//  2. 선언 파일을 찾아 해석한다.
//  3. 현재 상태와 비교해 전환 여부를 판정한다.
//  4. 전환할 차원이 있으면 실행한다.
//  5. 전환 여부와 관계없이 마지막 디렉토리를 기록한다.
func (h *Hook) Run(ctx context.Context, dir string, force bool) Report {
	if !force && dir == h.tracker.Get().LastDir {
		h.log.Debug().Str("dir", dir).Msg("같은 디렉토리, 건너뜀")
		return Report{Dir: dir, Skipped: true}
	}

	if force {
		h.tracker.Refresh(ctx, h.managePM)
	} else {
		h.tracker.EnsureInitialized(ctx, h.managePM)
	}

	r := h.plan(ctx, dir)
	if r.Decision.Any() {
		r.Switch = h.executor.Execute(ctx, r.Decision)
		r.Messages = append(r.Messages, switchMessages(r.Switch, r.Decision)...)
	}
	h.tracker.SetLastDir(dir)

	r.Exports = make(map[string]string)
	for k, v := range r.Switch.Env {
		r.Exports[k] = v
	}
	r.Session = h.tracker.Vars()
	return r
}

// Plan은 전환하지 않고 dir에 대한 판정만 수행한다. 상태가 unknown이면 먼저 조회한다.
func (h *Hook) Plan(ctx context.Context, dir string) Report {
	h.tracker.EnsureInitialized(ctx, h.managePM)
	return h.plan(ctx, dir)
}

func (h *Hook) plan(ctx context.Context, dir string) Report {
	r := Report{Dir: dir}
	r.Located = h.locator.Locate(dir)
	if r.Located.Stopped != nil {
		h.log.Debug().Err(r.Located.Stopped).Msg("탐색이 일찍 끝남, 찾은 선언만 사용")
	}

	r.Declarations = version.ExtractAll(r.Located, dir)
	r.Resolution = h.resolver.Resolve(ctx, r.Declarations, h.tracker.Get())
	for _, w := range r.Resolution.Warnings {
		r.Messages = append(r.Messages, Message{Level: LevelWarn, Text: w.Error()})
	}
	r.Decision = resolver.Decide(r.Resolution, h.tracker.Get())
	return r
}

func switchMessages(res switcher.Result, d resolver.Decision) []Message {
	var msgs []Message
	for _, o := range res.Outcomes {
		if !o.OK() {
			msgs = append(msgs, Message{Level: LevelWarn, Text: o.Err.Error()})
			continue
		}
		reason := d.NodeReason
		if o.Dimension == switcher.DimPackageManager {
			reason = d.PackageManagerReason
		}
		msgs = append(msgs, Message{
			Level: LevelInfo,
			Text:  fmt.Sprintf("%s %s -> %s (%s)", o.Dimension, o.From, o.To, reason),
		})
	}
	return msgs
}
