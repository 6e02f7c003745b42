package resolver

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/rs/zerolog"

	"github.com/hbjs97/nodeswitch/internal/config"
	"github.com/hbjs97/nodeswitch/internal/manager"
	"github.com/hbjs97/nodeswitch/internal/state"
	"github.com/hbjs97/nodeswitch/internal/version"
)

// ErrNoMatch는 범위를 만족하는 설치된 버전이 없을 때 반환된다.
var ErrNoMatch = errors.New("범위를 만족하는 설치된 버전 없음")

// ReasonDefault는 선언이 없어 전역 기본 버전을 선택했음을 뜻한다.
const ReasonDefault = "default"

// Options는 판정 정책이다.
type Options struct {
	// Fallback은 선언이 없는 차원의 처리 방식이다 (config.FallbackKeep / config.FallbackDefault).
	Fallback              string
	DefaultNode           string
	DefaultPackageManager string
	ManagePackageManager  bool
}

// Target은 한 차원의 판정 결과다. Version이 비어 있으면 전환 대상이 없다.
type Target struct {
	Version string
	Spec    version.Spec
	// Reason은 선언 출처(".nvmrc", "package.json", "workspace") 또는 ReasonDefault다.
	Reason string
	// File은 선언을 읽은 파일이다. 기본값이면 비어 있다.
	File string
}

// Resolution은 선언 목록을 해석한 결과다.
type Resolution struct {
	Node           Target
	PackageManager Target
	// Warnings는 잘못된 선언, 설치되지 않은 버전 등 사용자에게 알릴 문제다. 치명적이지 않다.
	Warnings []error
}

// Decision은 전환 여부 판정이다. 저장되지 않는 파생 값이다.
type Decision struct {
	SwitchNode           bool
	SwitchPackageManager bool
	TargetNode           string
	TargetPackageManager string
	NodeReason           string
	PackageManagerReason string
}

// Any는 전환할 차원이 하나라도 있는지 반환한다.
func (d Decision) Any() bool {
	return d.SwitchNode || d.SwitchPackageManager
}

// Decide는 해석 결과와 현재 상태를 비교한다. 목표가 현재 값과 같으면 전환하지 않는다.
func Decide(res Resolution, s state.ActiveState) Decision {
	return Decision{
		SwitchNode:           res.Node.Version != "" && res.Node.Version != s.Node,
		SwitchPackageManager: res.PackageManager.Version != "" && res.PackageManager.Version != s.PackageManager,
		TargetNode:           res.Node.Version,
		TargetPackageManager: res.PackageManager.Version,
		NodeReason:           res.Node.Reason,
		PackageManagerReason: res.PackageManager.Reason,
	}
}

// Resolver는 선언을 설치된 정확한 버전으로 해석한다.
type Resolver struct {
	node manager.NodeManager
	pm   manager.PackageManager
	opts Options
	log  zerolog.Logger
}

// New는 새 Resolver를 생성한다. pm이 nil이면 pnpm은 판정하지 않는다.
func New(node manager.NodeManager, pm manager.PackageManager, opts Options, log zerolog.Logger) *Resolver {
	return &Resolver{node: node, pm: pm, opts: opts, log: log}
}

// Resolve는 차원별로 가장 구체적인 유효한 선언을 골라 설치된 버전으로 해석한다.
//
// 후보는 해당 차원을 선언한 선언들이다. 더 깊은 디렉토리가 우선하고, 같은 깊이에서는
// .nvmrc > package.json > workspace 순이다. 잘못된 선언은 경고 후 다음 후보로 넘어간다.
// 유효한 후보가 없으면 Fallback 정책을 따른다.
func (r *Resolver) Resolve(ctx context.Context, decls []version.Declaration, current state.ActiveState) Resolution {
	var res Resolution

	nodeDecls := candidates(decls, func(d version.Declaration) version.Spec { return d.Node })
	res.Node = r.resolveDimension(ctx, &res, nodeDecls, r.opts.DefaultNode,
		func(d version.Declaration) version.Spec { return d.Node },
		r.resolveNode)

	if r.pm != nil && r.opts.ManagePackageManager {
		pmDecls := candidates(decls, func(d version.Declaration) version.Spec { return d.PackageManager })
		res.PackageManager = r.resolveDimension(ctx, &res, pmDecls, r.opts.DefaultPackageManager,
			func(d version.Declaration) version.Spec { return d.PackageManager },
			func(ctx context.Context, spec version.Spec) (string, error) {
				return r.resolvePackageManager(ctx, spec, current.PackageManager)
			})
	}

	r.log.Debug().
		Str("node", res.Node.Version).Str("node_reason", res.Node.Reason).
		Str("pnpm", res.PackageManager.Version).Str("pnpm_reason", res.PackageManager.Reason).
		Int("warnings", len(res.Warnings)).
		Msg("판정 완료")
	return res
}

type resolveFunc func(context.Context, version.Spec) (string, error)

func (r *Resolver) resolveDimension(
	ctx context.Context,
	res *Resolution,
	decls []version.Declaration,
	defaultRaw string,
	pick func(version.Declaration) version.Spec,
	resolve resolveFunc,
) Target {
	for _, d := range decls {
		spec := pick(d)
		if spec.Kind == version.KindInvalid {
			res.Warnings = append(res.Warnings, fmt.Errorf("%s: %w", d.File, spec.Err))
			continue
		}

		t := Target{Spec: spec, Reason: d.Source.String(), File: d.File}
		v, err := resolve(ctx, spec)
		if err != nil {
			// 선언은 유효하지만 사용할 수 없다. 덜 구체적인 선언으로 넘어가지 않는다.
			res.Warnings = append(res.Warnings, fmt.Errorf("%s: %w", d.File, err))
			return t
		}
		t.Version = v
		return t
	}

	if r.opts.Fallback != config.FallbackDefault || defaultRaw == "" {
		return Target{}
	}

	spec := version.ParseSpec(defaultRaw)
	t := Target{Spec: spec, Reason: ReasonDefault}
	if spec.Kind == version.KindInvalid {
		res.Warnings = append(res.Warnings, fmt.Errorf("기본 버전: %w", spec.Err))
		return t
	}
	v, err := resolve(ctx, spec)
	if err != nil {
		res.Warnings = append(res.Warnings, fmt.Errorf("기본 버전: %w", err))
		return t
	}
	t.Version = v
	return t
}

func (r *Resolver) resolveNode(ctx context.Context, spec version.Spec) (string, error) {
	if spec.Kind == version.KindAlias {
		v, err := r.node.ResolveAlias(ctx, spec.Value)
		if err != nil {
			return "", fmt.Errorf("node %s: %w (nvm install %s)", spec.Raw, err, spec.Raw)
		}
		return v, nil
	}

	installed, err := r.node.Installed(ctx)
	if err != nil {
		return "", fmt.Errorf("node %s: 설치 목록 조회 실패: %w", spec.Raw, err)
	}
	if v, ok := version.HighestSatisfying(spec, installed); ok {
		return v, nil
	}
	if spec.Kind == version.KindExact {
		return "", fmt.Errorf("node %s: %w (nvm install %s)", spec.Value, manager.ErrNotInstalled, spec.Value)
	}
	return "", fmt.Errorf("node %s: %w (nvm install %s)", spec.Raw, ErrNoMatch, spec.Raw)
}

// resolvePackageManager는 pnpm 선언을 해석한다. 정확한 버전은 corepack 캐시 여부와 관계없이 그대로 사용하고
// 전환 시 오프라인 활성화가 실패하면 경고된다. 범위는 캐시된 버전과 현재 활성 버전 중에서 고른다.
func (r *Resolver) resolvePackageManager(ctx context.Context, spec version.Spec, current string) (string, error) {
	switch spec.Kind {
	case version.KindExact:
		return spec.Value, nil
	case version.KindRange:
	default:
		return "", fmt.Errorf("pnpm %s: %w", spec.Raw, version.ErrInvalidSpec)
	}

	installed, err := r.pm.Installed(ctx)
	if err != nil {
		return "", fmt.Errorf("pnpm %s: 설치 목록 조회 실패: %w", spec.Raw, err)
	}
	if current != state.Unknown && current != "" && !slices.Contains(installed, current) {
		installed = append(slices.Clone(installed), current)
	}
	if v, ok := version.HighestSatisfying(spec, installed); ok {
		return v, nil
	}
	return "", fmt.Errorf("pnpm %s: %w (corepack install -g pnpm@%s)", spec.Raw, ErrNoMatch, spec.Raw)
}

// candidates는 해당 차원을 선언한 선언을 우선순위 순서로 반환한다.
func candidates(decls []version.Declaration, pick func(version.Declaration) version.Spec) []version.Declaration {
	var out []version.Declaration
	for _, d := range decls {
		if pick(d).Kind != version.KindNone {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := out[i].Depth(), out[j].Depth()
		if di != dj {
			return di > dj
		}
		return out[i].Source < out[j].Source
	})
	return out
}
