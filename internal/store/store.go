// Package store provee el registry de adapters de persistencia.
// Cada adapter (memory, fs, postgres) se registra en su init(); el binario elige
// cuál abrir según config (storage.driver).
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dropDatabas3/procurauth/internal/domain/repository"
)

// Adapter crea conexiones a un almacenamiento.
type Adapter interface {
	// Name: "memory", "fs", "postgres".
	Name() string
	Connect(ctx context.Context, cfg Config) (Connection, error)
}

// Connection es una conexión activa con acceso a los repositorios.
type Connection interface {
	Name() string
	Ping(ctx context.Context) error
	Close() error

	OTP() repository.OTPRepository
	Users() repository.UserRepository
}

// Config para abrir un adapter.
type Config struct {
	// Driver: nombre del adapter.
	Driver string
	// DSN para postgres.
	DSN string
	// FSRoot directorio de los JSON (fs). Default "data".
	FSRoot string
	// MaxConns del pool (postgres). Default 10.
	MaxConns int32
	// AutoMigrate aplica migraciones pendientes al conectar (postgres).
	AutoMigrate bool
}

var (
	registryMu sync.RWMutex
	adapters   = make(map[string]Adapter)
)

// RegisterAdapter registra un adapter. Llamar desde init().
func RegisterAdapter(a Adapter) {
	registryMu.Lock()
	defer registryMu.Unlock()
	name := a.Name()
	if _, exists := adapters[name]; exists {
		panic(fmt.Sprintf("store: adapter %q already registered", name))
	}
	adapters[name] = a
}

// GetAdapter obtiene un adapter por nombre.
func GetAdapter(name string) (Adapter, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	a, ok := adapters[name]
	return a, ok
}

// ListAdapters retorna los nombres registrados, ordenados.
func ListAdapters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(adapters))
	for name := range adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open abre una conexión con el adapter indicado en cfg.Driver.
func Open(ctx context.Context, cfg Config) (Connection, error) {
	a, ok := GetAdapter(cfg.Driver)
	if !ok {
		return nil, fmt.Errorf("store: adapter %q not registered (have %v)", cfg.Driver, ListAdapters())
	}
	return a.Connect(ctx, cfg)
}
