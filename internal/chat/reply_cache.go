package chat

import (
	"container/list"
	"context"
	"strings"
	"sync"

	"chefbot/internal/llm"
	"chefbot/internal/prompt"
)

// ReplyCache интерфейс кэша готовых ответов.
type ReplyCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Put(ctx context.Context, key string, reply string)
	Len() int
}

// CacheKey собирает ключ lower(message)|mode|language|backend.
func CacheKey(message string, mode prompt.Mode, lang prompt.Language, backend llm.BackendID) string {
	return strings.Join([]string{strings.ToLower(message), string(mode), string(lang), string(backend)}, "|")
}

type cacheEntry struct {
	key   string
	reply string
}

// MemoryReplyCache ограниченный кэш: при заполнении вытесняется самая старая запись.
// Повторная запись по существующему ключу заменяет значение, но не меняет порядок.
type MemoryReplyCache struct {
	mu       sync.Mutex
	entries  map[string]*list.Element
	order    *list.List
	capacity int
}

// NewMemoryReplyCache создаёт FIFO-кэш на capacity ответов.
func NewMemoryReplyCache(capacity int) *MemoryReplyCache {
	if capacity < 1 {
		capacity = 1
	}
	return &MemoryReplyCache{
		entries:  make(map[string]*list.Element, capacity),
		order:    list.New(),
		capacity: capacity,
	}
}

func (c *MemoryReplyCache) Get(ctx context.Context, key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return "", false
	}
	return el.Value.(*cacheEntry).reply, true
}

func (c *MemoryReplyCache) Put(ctx context.Context, key string, reply string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheEntry).reply = reply
		return
	}
	if c.order.Len() >= c.capacity {
		if oldest := c.order.Front(); oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry).key)
		}
	}
	c.entries[key] = c.order.PushBack(&cacheEntry{key: key, reply: reply})
}

func (c *MemoryReplyCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
