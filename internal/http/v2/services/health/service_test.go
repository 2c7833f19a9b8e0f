package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	dto "github.com/dropDatabas3/procurauth/internal/http/v2/dto/health"
	jwtx "github.com/dropDatabas3/procurauth/internal/jwt"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type readyErr struct{ err error }

func (r readyErr) Ready() error { return r.err }

var (
	okPing   = pingFunc(func(context.Context) error { return nil })
	downPing = pingFunc(func(context.Context) error { return errors.New("connection refused") })
)

func healthyDeps() Deps {
	return Deps{
		Store:   okPing,
		Tokens:  jwtx.NewService(jwtx.Config{Secret: "s"}),
		Hasher:  readyErr{},
		Service: "procurauth",
	}
}

func TestCheck_Ready(t *testing.T) {
	resp := NewService(healthyDeps()).Check(context.Background())
	assert.Equal(t, dto.StatusReady, resp.Status)
	assert.Equal(t, "ok", resp.Components["store"].Status)
	assert.Equal(t, "disabled", resp.Components["redis"].Status)
	assert.Equal(t, "ok", resp.Components["tokens"].Status)
	assert.Equal(t, "ok", resp.Components["hasher"].Status)
	assert.Equal(t, "procurauth", resp.Service)
}

func TestCheck_StoreDownIsUnavailable(t *testing.T) {
	deps := healthyDeps()
	deps.Store = downPing
	resp := NewService(deps).Check(context.Background())
	assert.Equal(t, dto.StatusUnavailable, resp.Status)
	assert.Contains(t, resp.Components["store"].Message, "connection refused")
}

func TestCheck_Degraded(t *testing.T) {
	cases := map[string]func(*Deps){
		"redis down":     func(d *Deps) { d.Redis = downPing },
		"no jwt secret":  func(d *Deps) { d.Tokens = jwtx.NewService(jwtx.Config{}) },
		"pepper missing": func(d *Deps) { d.Hasher = readyErr{errors.New("pepper not configured")} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			deps := healthyDeps()
			mutate(&deps)
			assert.Equal(t, dto.StatusDegraded, NewService(deps).Check(context.Background()).Status)
		})
	}
}

func TestCheck_PingHonoursTimeout(t *testing.T) {
	deps := healthyDeps()
	deps.Redis = pingFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	deps.Timeout = 1
	resp := NewService(deps).Check(context.Background())
	assert.Equal(t, dto.StatusDegraded, resp.Status)
	assert.Equal(t, "error", resp.Components["redis"].Status)
}
