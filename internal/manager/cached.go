package manager

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/hbjs97/nodeswitch/internal/cache"
)

// DefaultCacheTTL은 fingerprint가 바뀌지 않아도 조회 결과를 다시 확인하는 주기다.
const DefaultCacheTTL = 24 * time.Hour

// CachedNodeManager는 설치 목록과 별칭 해석 결과를 파일 캐시에 저장하는 NodeManager다.
// 버전 선언 자체는 캐시하지 않는다. Use는 항상 실제 관리자를 호출한다.
type CachedNodeManager struct {
	NodeManager
	cache       *cache.Cache
	path        string
	ttl         time.Duration
	fingerprint func() string
	log         zerolog.Logger
}

// WithCache는 nm을 캐시로 감싼다. fingerprint가 빈 문자열이면 캐시를 사용하지 않는다.
func WithCache(nm NodeManager, c *cache.Cache, path string, fingerprint func() string, log zerolog.Logger) *CachedNodeManager {
	return &CachedNodeManager{
		NodeManager: nm,
		cache:       c,
		path:        path,
		ttl:         DefaultCacheTTL,
		fingerprint: fingerprint,
		log:         log,
	}
}

// Installed는 캐시가 유효하면 캐시된 목록을, 아니면 실제 관리자의 결과를 반환한다.
func (m *CachedNodeManager) Installed(ctx context.Context) ([]string, error) {
	key := cache.InstalledKey(m.Name())
	fp := m.fingerprint()
	if e, ok := m.cache.Lookup(key, fp, m.ttl); ok {
		m.log.Debug().Str("key", key).Msg("캐시 hit")
		return e.Versions, nil
	}

	versions, err := m.NodeManager.Installed(ctx)
	if err != nil {
		return nil, err
	}
	m.store(key, fp, cache.Entry{Versions: versions})
	return versions, nil
}

// uncachedAliases는 설치 디렉토리가 아니라 호출한 셸의 PATH에 따라 답이 달라지는 별칭이다.
var uncachedAliases = map[string]bool{
	"current": true,
}

// ResolveAlias는 별칭 해석 결과를 캐시한다. uncachedAliases는 항상 실제 관리자에게 묻는다.
func (m *CachedNodeManager) ResolveAlias(ctx context.Context, alias string) (string, error) {
	if uncachedAliases[alias] {
		return m.NodeManager.ResolveAlias(ctx, alias)
	}
	key := cache.AliasKey(m.Name(), alias)
	fp := m.fingerprint()
	if e, ok := m.cache.Lookup(key, fp, m.ttl); ok {
		m.log.Debug().Str("key", key).Msg("캐시 hit")
		return e.Resolved, nil
	}

	v, err := m.NodeManager.ResolveAlias(ctx, alias)
	if err != nil {
		return "", err
	}
	m.store(key, fp, cache.Entry{Resolved: v})
	return v, nil
}

func (m *CachedNodeManager) store(key, fp string, e cache.Entry) {
	if fp == "" {
		return
	}
	e.Fingerprint = fp
	m.cache.Set(key, e)
	if m.path == "" {
		return
	}
	if err := m.cache.Save(m.path); err != nil {
		m.log.Debug().Err(err).Str("path", m.path).Msg("캐시 저장 실패")
	}
}
