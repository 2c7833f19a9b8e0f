// Package fs implementa los repositorios sobre archivos JSON.
//
// Layout bajo el root:
//
//	otp.json    arreglo de entradas OTP, una por userId
//	users.json  arreglo de usuarios
//
// Cada escritura reemplaza la colección completa de forma atómica (tmp + fsync + rename).
// Un mutex por colección serializa los read-modify-write dentro del proceso; no hay
// locking entre procesos, así que el directorio debe tener un único escritor.
package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dropDatabas3/procurauth/internal/domain/repository"
	"github.com/dropDatabas3/procurauth/internal/store"
)

func init() {
	store.RegisterAdapter(&fsAdapter{})
}

const filePerm = 0o600

type fsAdapter struct{}

func (a *fsAdapter) Name() string { return "fs" }

func (a *fsAdapter) Connect(_ context.Context, cfg store.Config) (store.Connection, error) {
	return Open(cfg.FSRoot)
}

// Conn es una conexión al directorio de datos.
type Conn struct {
	root  string
	otp   *OTPRepo
	users *UserRepo
}

// Open crea el root si no existe.
func Open(root string) (*Conn, error) {
	if root == "" {
		root = "data"
	}
	info, err := os.Stat(root)
	switch {
	case os.IsNotExist(err):
		if mkErr := os.MkdirAll(root, 0o755); mkErr != nil {
			return nil, fmt.Errorf("fs: create root %s: %w", root, mkErr)
		}
	case err != nil:
		return nil, fmt.Errorf("fs: root path error: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("fs: root path is not a directory: %s", root)
	}
	return &Conn{
		root:  root,
		otp:   &OTPRepo{path: filepath.Join(root, "otp.json")},
		users: &UserRepo{path: filepath.Join(root, "users.json")},
	}, nil
}

func (c *Conn) Name() string { return "fs" }

func (c *Conn) Ping(context.Context) error {
	_, err := os.Stat(c.root)
	return err
}

func (c *Conn) Close() error { return nil }

func (c *Conn) OTP() repository.OTPRepository    { return c.otp }
func (c *Conn) Users() repository.UserRepository { return c.users }
