// Package version은 선언 파일의 내용을 정규화된 버전 선언으로 변환한다.
package version

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ErrInvalidSpec은 해석할 수 없는 버전 문자열에 대한 sentinel error다.
var ErrInvalidSpec = errors.New("잘못된 버전 문자열")

// Kind는 Spec의 종류다.
type Kind int

const (
	// KindNone은 선언이 없음을 뜻한다.
	KindNone Kind = iota
	// KindExact는 "20.10.0" 같은 정확한 고정 버전이다.
	KindExact
	// KindRange는 "18", "^18.2", ">=18 <21" 같은 semver 범위다.
	KindRange
	// KindAlias는 "lts/*", "node" 같은 nvm 별칭이다. 로컬에서 해석하지 않는다.
	KindAlias
	// KindInvalid는 파싱에 실패한 선언이다.
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindExact:
		return "exact"
	case KindRange:
		return "range"
	case KindAlias:
		return "alias"
	case KindInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseError는 버전 문자열 파싱 실패 정보다.
type ParseError struct {
	Raw    string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s %q: %s", ErrInvalidSpec.Error(), e.Raw, e.Reason)
}

func (e *ParseError) Unwrap() error { return ErrInvalidSpec }

// Spec은 하나의 차원(node 또는 pnpm)에 대한 선언 값이다.
// Kind에 따라 Value는 정규화된 버전(Exact), 범위 식(Range), 별칭(Alias)이다.
type Spec struct {
	Kind  Kind
	Raw   string
	Value string
	Err   error
}

// Declared는 유효한 선언인지 반환한다.
func (s Spec) Declared() bool {
	return s.Kind == KindExact || s.Kind == KindRange || s.Kind == KindAlias
}

func (s Spec) String() string {
	if s.Kind == KindNone {
		return ""
	}
	return s.Raw
}

var aliases = map[string]bool{
	"node":    true,
	"stable":  true,
	"latest":  true,
	"current": true,
	"default": true,
}

var ltsAlias = regexp.MustCompile(`^lts/(\*|-\d+|[a-z]+)$`)

// ParseSpec은 원시 문자열을 Spec으로 변환한다.
func ParseSpec(raw string) Spec {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Spec{Kind: KindNone}
	}

	lower := strings.ToLower(raw)
	if aliases[lower] || ltsAlias.MatchString(lower) {
		return Spec{Kind: KindAlias, Raw: raw, Value: lower}
	}

	bare := trimV(raw)
	if v, err := semver.StrictNewVersion(bare); err == nil {
		return Spec{Kind: KindExact, Raw: raw, Value: v.String()}
	}
	if _, err := semver.NewConstraint(bare); err == nil {
		return Spec{Kind: KindRange, Raw: raw, Value: bare}
	}

	return Spec{
		Kind: KindInvalid,
		Raw:  raw,
		Err:  &ParseError{Raw: raw, Reason: "semver 버전, 범위, 또는 nvm 별칭이 아닙니다"},
	}
}

// Invalid는 reason과 함께 KindInvalid Spec을 만든다.
func Invalid(raw, reason string) Spec {
	return Spec{Kind: KindInvalid, Raw: raw, Err: &ParseError{Raw: raw, Reason: reason}}
}

// Normalize는 "v20.10.0" 같은 문자열을 "20.10.0"으로 정규화한다. 실패하면 ok=false.
func Normalize(s string) (string, bool) {
	v, err := semver.StrictNewVersion(trimV(strings.TrimSpace(s)))
	if err != nil {
		return "", false
	}
	return v.String(), true
}

// HighestSatisfying은 installed 중 spec을 만족하는 가장 높은 버전을 반환한다.
// Exact는 정확히 일치해야 하고, Range는 범위를 만족해야 한다. Alias와 그 외는 ok=false.
func HighestSatisfying(spec Spec, installed []string) (string, bool) {
	var check func(*semver.Version) bool
	switch spec.Kind {
	case KindExact:
		want := semver.MustParse(spec.Value)
		check = want.Equal
	case KindRange:
		c, err := semver.NewConstraint(spec.Value)
		if err != nil {
			return "", false
		}
		check = c.Check
	default:
		return "", false
	}

	var matched semver.Collection
	for _, s := range installed {
		v, err := semver.StrictNewVersion(trimV(s))
		if err != nil {
			continue
		}
		if check(v) {
			matched = append(matched, v)
		}
	}
	if len(matched) == 0 {
		return "", false
	}
	sort.Sort(matched)
	return matched[len(matched)-1].String(), true
}

// Sort는 버전 문자열을 semver 오름차순으로 정렬하고 중복/잘못된 값을 제거한다.
func Sort(versions []string) []string {
	seen := make(map[string]bool)
	var coll semver.Collection
	for _, s := range versions {
		v, err := semver.StrictNewVersion(trimV(strings.TrimSpace(s)))
		if err != nil || seen[v.String()] {
			continue
		}
		seen[v.String()] = true
		coll = append(coll, v)
	}
	sort.Sort(coll)
	out := make([]string, len(coll))
	for i, v := range coll {
		out[i] = v.String()
	}
	return out
}

func trimV(s string) string {
	if len(s) > 1 && (s[0] == 'v' || s[0] == 'V') && s[1] >= '0' && s[1] <= '9' {
		return s[1:]
	}
	return s
}
