package usecase

import (
	"strings"
	"sync"

	"github.com/whisperengine-ai/whisperengine/internal/core/domain"
	"github.com/whisperengine-ai/whisperengine/internal/core/ports"
)

// KeywordCache memoizes the annotated token (with vector) of each
// keyword in the fixed category vocabulary, so the annotator runs at
// most once per keyword for the process lifetime. Multi-word phrases
// cache a nil sentinel: substring matching handles them instead.
//
// Population is idempotent, so a race during warm-up costs at most
// redundant annotation, never a wrong entry. Entries are never evicted.
type KeywordCache struct {
	annotator ports.Annotator

	mu      sync.RWMutex
	entries map[string]*domain.Token
}

func NewKeywordCache(annotator ports.Annotator) *KeywordCache {
	return &KeywordCache{
		annotator: annotator,
		entries:   make(map[string]*domain.Token),
	}
}

// Resolve returns the cached single-token annotation of keyword, or nil
// for multi-word phrases and unparseable input.
func (c *KeywordCache) Resolve(keyword string) *domain.Token {
	key := strings.ToLower(strings.TrimSpace(keyword))
	if key == "" {
		return nil
	}

	c.mu.RLock()
	token, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return token
	}

	token = c.annotateKeyword(key)

	c.mu.Lock()
	// A racing caller may have stored the same idempotent result already.
	if existing, ok := c.entries[key]; ok {
		token = existing
	} else {
		c.entries[key] = token
	}
	c.mu.Unlock()
	return token
}

// Len reports the number of cached entries, nil sentinels included.
func (c *KeywordCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *KeywordCache) annotateKeyword(key string) *domain.Token {
	annotated := c.annotator.Annotate(key)
	if annotated == nil || len(annotated.Tokens) != 1 {
		return nil
	}
	token := annotated.Tokens[0]
	return &token
}
