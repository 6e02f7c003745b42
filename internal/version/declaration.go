package version

import (
	"bufio"
	"bytes"
	"encoding/json"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hbjs97/nodeswitch/internal/locator"
)

// Source는 선언 출처다.
type Source = locator.Source

// Declaration은 하나의 선언 파일(또는 워크스페이스 항목)이 요구하는 버전이다.
// 매 hook 실행마다 새로 만들어지며 변경하지 않는다.
type Declaration struct {
	Source         Source
	Node           Spec
	PackageManager Spec
	// Dir는 선언이 적용되는 디렉토리다. 워크스페이스 하위 프로젝트 항목은 그 하위 디렉토리다.
	Dir string
	// File은 선언을 읽은 파일 경로다.
	File string
}

// Depth는 Dir의 깊이다. 깊을수록 더 구체적인 선언이다.
func (d Declaration) Depth() int {
	return locator.Depth(d.Dir)
}

// Extract는 발견된 파일을 선언 목록으로 변환한다. cwd는 워크스페이스 하위 프로젝트 매칭에 쓰인다.
func Extract(f locator.Found, cwd string) []Declaration {
	switch f.Source {
	case locator.SourceNvmrc:
		return []Declaration{FromNvmrc(f)}
	case locator.SourcePackageJSON:
		return []Declaration{FromPackageJSON(f)}
	case locator.SourceWorkspace:
		return FromWorkspace(f, cwd)
	default:
		return nil
	}
}

// ExtractAll은 탐색 결과 전체를 선언 목록으로 변환한다.
func ExtractAll(res locator.Result, cwd string) []Declaration {
	var decls []Declaration
	for _, f := range res.Hits {
		decls = append(decls, Extract(f, cwd)...)
	}
	return decls
}

// FromNvmrc는 .nvmrc의 첫 번째 유효한 줄을 node 버전으로 사용한다.
// '#'으로 시작하는 줄과 줄 끝 주석은 무시한다.
func FromNvmrc(f locator.Found) Declaration {
	d := Declaration{Source: locator.SourceNvmrc, Dir: f.Dir, File: f.Path}

	scanner := bufio.NewScanner(bytes.NewReader(f.Data))
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if fields := strings.Fields(line); len(fields) > 1 {
			d.Node = Invalid(line, ".nvmrc에는 버전 토큰 하나만 올 수 있습니다")
			return d
		}
		d.Node = ParseSpec(line)
		return d
	}

	d.Node = Invalid("", "빈 .nvmrc")
	return d
}

type packageJSON struct {
	Engines        map[string]any `json:"engines"`
	PackageManager *string        `json:"packageManager"`
}

// FromPackageJSON은 engines.node / engines.pnpm을 읽는다.
// engines.pnpm이 없으면 "pnpm@x.y.z" 형식의 packageManager 필드를 pnpm 선언으로 사용한다.
func FromPackageJSON(f locator.Found) Declaration {
	d := Declaration{Source: locator.SourcePackageJSON, Dir: f.Dir, File: f.Path}

	var pkg packageJSON
	if err := json.Unmarshal(f.Data, &pkg); err != nil {
		d.Node = Invalid("", "package.json 파싱 실패: "+err.Error())
		return d
	}

	d.Node = engineSpec(pkg.Engines, "node")
	d.PackageManager = engineSpec(pkg.Engines, "pnpm")
	if d.PackageManager.Kind == KindNone && pkg.PackageManager != nil {
		d.PackageManager = packageManagerSpec(*pkg.PackageManager)
	}
	return d
}

func engineSpec(engines map[string]any, key string) Spec {
	raw, ok := engines[key]
	if !ok || raw == nil {
		return Spec{Kind: KindNone}
	}
	s, ok := raw.(string)
	if !ok {
		return Invalid("", "engines."+key+"은 문자열이어야 합니다")
	}
	spec := ParseSpec(s)
	if key == "pnpm" && spec.Kind == KindAlias {
		return Invalid(s, "pnpm에는 nvm 별칭을 쓸 수 없습니다")
	}
	return spec
}

// packageManagerSpec은 "pnpm@8.15.4+sha512.abc" 형식을 해석한다. pnpm이 아니면 선언 없음이다.
func packageManagerSpec(field string) Spec {
	field = strings.TrimSpace(field)
	name, ver, ok := strings.Cut(field, "@")
	if !ok || name != "pnpm" {
		return Spec{Kind: KindNone}
	}
	if i := strings.Index(ver, "+"); i >= 0 {
		ver = ver[:i]
	}
	spec := ParseSpec(ver)
	if spec.Kind != KindExact {
		return Invalid(field, "packageManager는 정확한 버전이어야 합니다 (예: pnpm@8.15.4)")
	}
	return spec
}

type workspacePin struct {
	Node string `yaml:"node"`
	Pnpm string `yaml:"pnpm"`
}

type workspaceFile struct {
	Node     string                  `yaml:"node"`
	Pnpm     string                  `yaml:"pnpm"`
	Projects map[string]workspacePin `yaml:"projects"`
}

// FromWorkspace는 워크스페이스 설정 파일을 읽는다.
//
//	node: "20"
//	pnpm: "8.15.4"
//	projects:
//	  packages/legacy:
//	    node: "16"
//
// 공유 선언은 파일이 있는 디렉토리에, cwd를 포함하는 가장 깊은 projects 항목은
// 그 하위 디렉토리에 적용되는 별도 선언으로 반환된다.
func FromWorkspace(f locator.Found, cwd string) []Declaration {
	var ws workspaceFile
	if err := yaml.Unmarshal(f.Data, &ws); err != nil {
		return []Declaration{{
			Source: locator.SourceWorkspace,
			Node:   Invalid("", "워크스페이스 설정 파싱 실패: "+err.Error()),
			Dir:    f.Dir,
			File:   f.Path,
		}}
	}

	var decls []Declaration
	if projDir, pin, ok := matchProject(f.Dir, ws.Projects, cwd); ok {
		decls = append(decls, pinDeclaration(pin, projDir, f.Path))
	}
	if ws.Node != "" || ws.Pnpm != "" {
		decls = append(decls, pinDeclaration(workspacePin{Node: ws.Node, Pnpm: ws.Pnpm}, f.Dir, f.Path))
	}
	return decls
}

func pinDeclaration(pin workspacePin, dir, file string) Declaration {
	d := Declaration{
		Source: locator.SourceWorkspace,
		Node:   ParseSpec(pin.Node),
		Dir:    dir,
		File:   file,
	}
	d.PackageManager = ParseSpec(pin.Pnpm)
	if d.PackageManager.Kind == KindAlias {
		d.PackageManager = Invalid(pin.Pnpm, "pnpm에는 nvm 별칭을 쓸 수 없습니다")
	}
	return d
}

func matchProject(root string, projects map[string]workspacePin, cwd string) (string, workspacePin, bool) {
	keys := make([]string, 0, len(projects))
	for k := range projects {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	best, bestDepth := "", -1
	var bestPin workspacePin
	for _, k := range keys {
		dir := filepath.Join(root, filepath.FromSlash(k))
		if !within(dir, cwd) {
			continue
		}
		if depth := locator.Depth(dir); depth > bestDepth {
			best, bestDepth, bestPin = dir, depth, projects[k]
		}
	}
	return best, bestPin, bestDepth >= 0
}

// within은 path가 dir 자신이거나 그 하위인지 확인한다.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
