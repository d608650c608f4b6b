package gitignore

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// LayeredMatcher composes a base .gitignore-derived Matcher with
// project-configured extra exclude patterns (paths.exclude in the
// config), caching recent match decisions so the watcher's hot path
// doesn't re-run every rule's regex on every event for paths it has
// already classified.
type LayeredMatcher struct {
	base  *Matcher
	extra *Matcher
	cache *lru.Cache[string, bool]
}

// NewLayeredMatcher builds a matcher over base gitignore rules plus
// additional always-on exclude patterns, with an LRU decision cache of
// the given size.
func NewLayeredMatcher(base *Matcher, extraPatterns []string, cacheSize int) (*LayeredMatcher, error) {
	extra := New()
	for _, p := range extraPatterns {
		extra.AddPattern(p)
	}
	if cacheSize <= 0 {
		cacheSize = 10000
	}
	cache, err := lru.New[string, bool](cacheSize)
	if err != nil {
		return nil, err
	}
	return &LayeredMatcher{base: base, extra: extra, cache: cache}, nil
}

// Match reports whether path should be excluded from indexing/watching,
// consulting the base layer first, then the extra-patterns layer, with
// results cached by path+isDir.
func (m *LayeredMatcher) Match(path string, isDir bool) bool {
	key := path
	if isDir {
		key += "/"
	}
	if v, ok := m.cache.Get(key); ok {
		return v
	}

	ignored := m.base.Match(path, isDir) || m.extra.Match(path, isDir)
	m.cache.Add(key, ignored)
	return ignored
}

// Invalidate drops the cached decision for a path, used when a
// .gitignore file itself changes (OpGitignoreChange).
func (m *LayeredMatcher) Invalidate(path string) {
	m.cache.Remove(path)
	m.cache.Remove(path + "/")
}

// Purge clears the whole decision cache, used when a .gitignore file
// changes in a way that could affect many paths at once.
func (m *LayeredMatcher) Purge() {
	m.cache.Purge()
}
