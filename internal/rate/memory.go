package rate

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryLimiter es el mismo fixed window que RedisLimiter pero en proceso.
// Sirve para un único nodo o cuando no hay Redis configurado.
type MemoryLimiter struct {
	cache  *gocache.Cache
	mu     sync.Mutex
	Max    int64
	Window time.Duration
	Now    func() time.Time
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &MemoryLimiter{
		// cleanup cada 2 ventanas alcanza, las claves viejas no se vuelven a leer
		cache:  gocache.New(window, 2*window),
		Max:    int64(max),
		Window: window,
		Now:    time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := l.Now().UTC()
	winStart := now.Truncate(l.Window)
	k := fmt.Sprintf("%s:%d", strings.ReplaceAll(key, " ", "_"), winStart.Unix())
	ttl := winStart.Add(l.Window).Sub(now)

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, found := l.cache.Get(k); !found {
		l.cache.Set(k, int64(0), ttl)
	}
	hits, err := l.cache.IncrementInt64(k, 1)
	if err != nil {
		return Result{}, fmt.Errorf("rate: memory incr: %w", err)
	}
	return fixedWindowResult(hits, l.Max, ttl, l.Window), nil
}

// Len devuelve la cantidad de ventanas vivas (tests).
func (l *MemoryLimiter) Len() int { return l.cache.ItemCount() }
