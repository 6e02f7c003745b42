// Package switcher는 판정 결과에 따라 버전 관리자를 호출하고 성공한 전환만 상태에 기록한다.
package switcher

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hbjs97/nodeswitch/internal/manager"
	"github.com/hbjs97/nodeswitch/internal/resolver"
	"github.com/hbjs97/nodeswitch/internal/state"
)

// Dimension은 전환 대상 차원이다.
type Dimension string

const (
	DimNode           Dimension = "node"
	DimPackageManager Dimension = "pnpm"
)

// Outcome은 한 차원의 전환 결과다.
type Outcome struct {
	Dimension Dimension
	From      string
	To        string
	// Err가 nil이 아니면 전환에 실패했고 상태는 바뀌지 않았다.
	Err error
}

// OK는 전환 성공 여부다.
func (o Outcome) OK() bool { return o.Err == nil }

// Result는 전환 실행 결과다.
type Result struct {
	Outcomes []Outcome
	// Env는 부모 셸에 export해야 하는 환경 변화다 (PATH, NVM_BIN 등).
	Env map[string]string
}

// Failed는 실패한 결과만 반환한다.
func (r Result) Failed() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if !o.OK() {
			out = append(out, o)
		}
	}
	return out
}

// Executor는 node와 pnpm 전환을 독립적으로 실행한다. 한쪽 실패가 다른 쪽 시도를 막지 않는다.
type Executor struct {
	node    manager.NodeManager
	pm      manager.PackageManager
	tracker *state.Tracker
	log     zerolog.Logger
}

// New는 새 Executor를 생성한다. pm이 nil이면 pnpm 전환은 건너뛴다.
func New(node manager.NodeManager, pm manager.PackageManager, tracker *state.Tracker, log zerolog.Logger) *Executor {
	return &Executor{node: node, pm: pm, tracker: tracker, log: log}
}

// Execute는 decision에 표시된 차원만 전환한다. node를 먼저 전환하고, 성공하면
// 새 node 환경에서 pnpm 버전을 다시 조회한 뒤 여전히 다를 때만 pnpm을 전환한다.
func (e *Executor) Execute(ctx context.Context, d resolver.Decision) Result {
	res := Result{Env: make(map[string]string)}

	if d.SwitchNode {
		o := Outcome{Dimension: DimNode, From: e.tracker.Get().Node, To: d.TargetNode}
		act, err := e.node.Use(ctx, d.TargetNode)
		if err != nil {
			o.Err = fmt.Errorf("node %s 전환 실패: %w", d.TargetNode, err)
		} else {
			e.tracker.Update(act.Version, "")
			for k, v := range act.Env {
				res.Env[k] = v
			}
			if e.pm != nil && d.TargetPackageManager != "" {
				e.tracker.RefreshPackageManager(ctx, res.Env)
			}
		}
		e.log.Debug().Str("to", d.TargetNode).Err(o.Err).Msg("node 전환")
		res.Outcomes = append(res.Outcomes, o)
	}

	// node 전환 뒤 재조회한 값과 비교하므로 decision과 달라질 수 있다.
	switchPM := d.SwitchPackageManager
	if d.SwitchNode && d.TargetPackageManager != "" {
		switchPM = e.tracker.Get().PackageManager != d.TargetPackageManager
	}

	if switchPM && e.pm != nil {
		o := Outcome{Dimension: DimPackageManager, From: e.tracker.Get().PackageManager, To: d.TargetPackageManager}
		act, err := e.pm.Use(ctx, d.TargetPackageManager, res.Env)
		if err != nil {
			o.Err = fmt.Errorf("pnpm %s 전환 실패: %w", d.TargetPackageManager, err)
		} else {
			e.tracker.Update("", act.Version)
			for k, v := range act.Env {
				res.Env[k] = v
			}
		}
		e.log.Debug().Str("to", d.TargetPackageManager).Err(o.Err).Msg("pnpm 전환")
		res.Outcomes = append(res.Outcomes, o)
	}

	return res
}
