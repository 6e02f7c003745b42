package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Cache는 버전 관리자 조회 결과 캐시다. hook마다 nvm을 로드하는 비용을 줄인다.
type Cache struct {
	Version int              `json:"version"`
	Entries map[string]Entry `json:"entries"`
}

// Entry는 하나의 캐시 항목이다.
// 설치 목록은 Versions에, 별칭 해석 결과는 Resolved에 저장된다.
type Entry struct {
	Versions    []string `json:"versions,omitempty"`
	Resolved    string   `json:"resolved,omitempty"`
	ResolvedAt  string   `json:"resolved_at"`
	Fingerprint string   `json:"fingerprint"`
}

// New는 빈 캐시를 생성한다.
func New() *Cache {
	return &Cache{Version: 1, Entries: make(map[string]Entry)}
}

// Load는 캐시 파일을 파싱한다. 파일 없음/파싱 실패 시 빈 캐시 반환 (graceful).
func Load(path string) (*Cache, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache.Load: %w", err)
	}
	var c Cache
	if err := json.Unmarshal(data, &c); err != nil {
		return New(), nil
	}
	if c.Entries == nil {
		c.Entries = make(map[string]Entry)
	}
	return &c, nil
}

// InstalledKey는 관리자의 설치 목록 캐시 키다.
func InstalledKey(manager string) string {
	return "installed:" + manager
}

// AliasKey는 관리자의 별칭 해석 캐시 키다.
func AliasKey(manager, alias string) string {
	return "alias:" + manager + ":" + alias
}

// Lookup은 키로 캐시를 조회한다. TTL과 fingerprint가 유효해야 hit.
// fingerprint는 설치 디렉토리의 변경을 반영하므로 설치/삭제 직후에는 miss가 된다.
func (c *Cache) Lookup(key, fingerprint string, ttl time.Duration) (*Entry, bool) {
	e, ok := c.Entries[key]
	if !ok {
		return nil, false
	}
	if fingerprint == "" || e.Fingerprint != fingerprint {
		return nil, false
	}
	resolved, err := time.Parse(time.RFC3339, e.ResolvedAt)
	if err != nil {
		return nil, false
	}
	if time.Since(resolved) > ttl {
		return nil, false
	}
	return &e, true
}

// Set은 캐시 항목을 추가하거나 갱신한다.
func (c *Cache) Set(key string, entry Entry) {
	if entry.ResolvedAt == "" {
		entry.ResolvedAt = time.Now().UTC().Format(time.RFC3339)
	}
	c.Entries[key] = entry
}

// Save는 캐시를 JSON 파일로 저장한다 (0600 권한).
func (c *Cache) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("cache.Save: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("cache.Save: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// InvalidateManager는 특정 관리자의 모든 캐시 항목을 제거한다.
func (c *Cache) InvalidateManager(manager string) {
	for key := range c.Entries {
		if key == InstalledKey(manager) || strings.HasPrefix(key, "alias:"+manager+":") {
			delete(c.Entries, key)
		}
	}
}
