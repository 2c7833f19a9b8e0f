// Package keylock serializa operaciones por clave (ej: userId) dentro del proceso.
package keylock

import (
	"context"
	"sync"
)

type entry struct {
	ch   chan struct{} // buffer 1: lleno = tomado
	refs int
}

// Locker entrega un mutex por clave. Las entradas se liberan cuando nadie las usa.
// El valor cero es usable.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*entry
}

func New() *Locker { return &Locker{} }

// Lock bloquea hasta obtener la clave o hasta que ctx termine.
// Devuelve la función de unlock, que debe llamarse exactamente una vez.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	e := l.acquireRef(key)
	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.releaseRef(key, e)
		return nil, ctx.Err()
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.releaseRef(key, e)
		})
	}, nil
}

// Len devuelve cuántas claves tienen lockers o esperas activas.
func (l *Locker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

func (l *Locker) acquireRef(key string) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.locks == nil {
		l.locks = make(map[string]*entry)
	}
	e, ok := l.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	return e
}

func (l *Locker) releaseRef(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}
