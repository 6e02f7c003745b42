// Package locator는 작업 디렉토리에서 상위로 올라가며 버전 선언 파일을 찾는다.
package locator

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/hbjs97/nodeswitch/internal/filesystem"
)

// Source는 버전 선언의 출처다. 값이 작을수록 같은 디렉토리에서 우선한다.
type Source int

const (
	// SourceNvmrc는 .nvmrc 파일이다.
	SourceNvmrc Source = iota
	// SourcePackageJSON은 package.json의 engines / packageManager 필드다.
	SourcePackageJSON
	// SourceWorkspace는 여러 하위 프로젝트의 버전을 선언하는 워크스페이스 설정 파일이다.
	SourceWorkspace
)

func (s Source) String() string {
	switch s {
	case SourceNvmrc:
		return ".nvmrc"
	case SourcePackageJSON:
		return "package.json"
	case SourceWorkspace:
		return "workspace"
	default:
		return fmt.Sprintf("Source(%d)", int(s))
	}
}

// 파일 이름.
const (
	NvmrcFile       = ".nvmrc"
	PackageJSONFile = "package.json"
)

// Found는 발견된 선언 파일 하나다.
type Found struct {
	Source Source
	Dir    string
	Path   string
	Data   []byte
}

// Result는 탐색 결과다. Hits는 가까운 디렉토리부터, 같은 디렉토리 안에서는 Source 순서로 정렬된다.
type Result struct {
	Hits []Found
	// Boundary는 경계 마커 때문에 탐색이 멈춘 디렉토리다 (없으면 빈 문자열).
	Boundary string
	// Stopped는 권한 오류 등으로 탐색이 일찍 끝난 원인이다. 부재는 오류가 아니다.
	Stopped error
}

// First는 source 범주에서 가장 가까운 선언을 반환한다.
func (r Result) First(source Source) (Found, bool) {
	for _, h := range r.Hits {
		if h.Source == source {
			return h, true
		}
	}
	return Found{}, false
}

// Options는 탐색 설정이다.
type Options struct {
	WorkspaceFile   string
	BoundaryMarkers []string
}

// Locator는 읽기 전용 상위 디렉토리 탐색기다.
type Locator struct {
	fs   filesystem.FileSystem
	opts Options
	log  zerolog.Logger
}

// New는 새 Locator를 생성한다.
func New(fsys filesystem.FileSystem, opts Options, log zerolog.Logger) *Locator {
	return &Locator{fs: fsys, opts: opts, log: log}
}

// Locate는 start와 그 상위 디렉토리를 루트 또는 경계 마커까지 탐색한다.
// 경계 마커가 있는 디렉토리 자체는 탐색에 포함된다.
func (l *Locator) Locate(start string) Result {
	var res Result
	dir := filepath.Clean(start)

	for {
		hits, err := l.scan(dir)
		res.Hits = append(res.Hits, hits...)
		if err != nil {
			l.log.Debug().Err(err).Str("dir", dir).Msg("탐색 중단")
			res.Stopped = err
			return res
		}
		if l.isBoundary(dir) {
			res.Boundary = dir
			return res
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return res
		}
		dir = parent
	}
}

type candidate struct {
	name   string
	source Source
}

func (l *Locator) candidates() []candidate {
	c := []candidate{
		{NvmrcFile, SourceNvmrc},
		{PackageJSONFile, SourcePackageJSON},
	}
	if l.opts.WorkspaceFile != "" {
		c = append(c, candidate{l.opts.WorkspaceFile, SourceWorkspace})
	}
	return c
}

func (l *Locator) scan(dir string) ([]Found, error) {
	var hits []Found
	for _, c := range l.candidates() {
		path := filepath.Join(dir, c.name)
		info, err := l.fs.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return hits, fmt.Errorf("locator.scan: %w", err)
		}
		if info.IsDir() {
			continue
		}

		data, err := l.fs.ReadFile(path)
		if err != nil {
			return hits, fmt.Errorf("locator.scan: %w", err)
		}
		if c.source == SourcePackageJSON && !declaresToolchain(data) {
			continue
		}

		l.log.Debug().Str("path", path).Stringer("source", c.source).Msg("선언 발견")
		hits = append(hits, Found{Source: c.source, Dir: dir, Path: path, Data: data})
	}
	return hits, nil
}

func (l *Locator) isBoundary(dir string) bool {
	for _, marker := range l.opts.BoundaryMarkers {
		if _, err := l.fs.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}

// declaresToolchain은 package.json에 engines 또는 packageManager 필드가 있는지 확인한다.
// 파싱할 수 없는 package.json은 선언으로 남겨 추출 단계가 경고하게 한다.
func declaresToolchain(data []byte) bool {
	var pkg struct {
		Engines        json.RawMessage `json:"engines"`
		PackageManager json.RawMessage `json:"packageManager"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return true
	}
	return isPresent(pkg.Engines) || isPresent(pkg.PackageManager)
}

func isPresent(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

// Depth는 경로의 깊이다 ("/"는 0, "/a"는 1).
func Depth(dir string) int {
	dir = filepath.Clean(dir)
	n := 0
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			return n
		}
		n++
		dir = parent
	}
}
