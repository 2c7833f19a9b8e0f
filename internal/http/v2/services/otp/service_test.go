package otp

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/procurauth/internal/domain/repository"
	"github.com/dropDatabas3/procurauth/internal/security/clientauth"
	tokens "github.com/dropDatabas3/procurauth/internal/security/token"
	"github.com/dropDatabas3/procurauth/internal/store/memory"
)

const (
	testClient = "client-1"
	testSecret = "secret-1"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	svc   Service
	repo  *memory.OTPRepo
	clock *clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	c := &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	repo := memory.NewOTPRepo()
	return &fixture{
		svc: NewService(Deps{
			Repo: repo,
			Gate: clientauth.NewGate(testClient, testSecret),
			Now:  c.Now,
		}),
		repo:  repo,
		clock: c,
	}
}

func (f *fixture) generate(t *testing.T, userID string, ttl *float64) *Issued {
	t.Helper()
	out, err := f.svc.Generate(context.Background(), GenerateInput{
		UserID: userID, ClientID: testClient, SecretKey: testSecret, TTLSeconds: ttl,
	})
	require.NoError(t, err)
	return out
}

func f64(v float64) *float64 { return &v }

func TestGenerate_IssuesSixDigitCodeAndStoresHash(t *testing.T) {
	f := newFixture(t)
	out := f.generate(t, "u1", nil)

	assert.Regexp(t, `^\d{6}$`, out.Code)
	assert.Equal(t, 300, out.TTLSeconds)
	assert.True(t, out.ExpiresAt.Equal(f.clock.Now().Add(300*time.Second)))

	e, err := f.repo.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, tokens.SHA256Hex(out.Code), e.CodeHash)
	assert.NotContains(t, e.CodeHash, out.Code)
	assert.Equal(t, repository.OTPStateActive, e.State)
	assert.NotEmpty(t, e.ID)
}

func TestGenerate_TTLFlooredAndClamped(t *testing.T) {
	cases := []struct {
		in   *float64
		want int
	}{
		{nil, 300},
		{f64(10), 30},
		{f64(-5), 30},
		{f64(-1e10), 30},
		{f64(-9.3e9), 30},
		{f64(1e12), math.MaxInt32},
		{f64(90.9), 90},
		{f64(30), 30},
		{f64(3600), 3600},
	}
	for _, tc := range cases {
		f := newFixture(t)
		out := f.generate(t, "u1", tc.in)
		assert.Equal(t, tc.want, out.TTLSeconds)
	}
}

func TestGenerate_BadCredentialsHaveNoSideEffect(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Generate(context.Background(), GenerateInput{UserID: "u1", ClientID: testClient, SecretKey: "nope"})
	require.ErrorIs(t, err, clientauth.ErrMismatch)
	assert.Zero(t, f.repo.Len())

	noCfg := NewService(Deps{Repo: f.repo, Gate: clientauth.NewGate("", "")})
	_, err = noCfg.Generate(context.Background(), GenerateInput{UserID: "u1", ClientID: testClient, SecretKey: testSecret})
	require.ErrorIs(t, err, clientauth.ErrNotConfigured)
	assert.Zero(t, f.repo.Len())
}

func TestGenerate_MissingUserID(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Generate(context.Background(), GenerateInput{UserID: "  ", ClientID: testClient, SecretKey: testSecret})
	require.ErrorIs(t, err, ErrMissingUserID)
}

func TestGenerate_Throttle(t *testing.T) {
	f := newFixture(t)
	f.generate(t, "u1", nil)

	f.clock.Advance(10 * time.Second)
	_, err := f.svc.Generate(context.Background(), GenerateInput{UserID: "u1", ClientID: testClient, SecretKey: testSecret})
	var rl *RateLimitedError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, 20*time.Second, rl.RetryAfter)
	assert.Greater(t, rl.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, rl.RetryAfter, 30*time.Second)

	// otro usuario no se ve afectado
	f.generate(t, "u2", nil)

	f.clock.Advance(20 * time.Second)
	f.generate(t, "u1", nil)
}

func TestGenerate_NoThrottleAfterConsume(t *testing.T) {
	f := newFixture(t)
	out := f.generate(t, "u1", nil)
	require.NoError(t, f.svc.Consume(context.Background(), "u1", out.Code))

	f.clock.Advance(time.Second)
	f.generate(t, "u1", nil)
}

func TestGenerate_ReissueReplacesPriorCode(t *testing.T) {
	f := newFixture(t)
	first := f.generate(t, "u1", nil)
	f.clock.Advance(31 * time.Second)
	second := f.generate(t, "u1", nil)

	if first.Code != second.Code {
		require.ErrorIs(t, f.svc.Consume(context.Background(), "u1", first.Code), ErrInvalidCode)
	}
	require.NoError(t, f.svc.Consume(context.Background(), "u1", second.Code))
}

func TestConsume_SingleUse(t *testing.T) {
	f := newFixture(t)
	out := f.generate(t, "u1", nil)

	require.NoError(t, f.svc.Consume(context.Background(), "u1", out.Code))
	require.ErrorIs(t, f.svc.Consume(context.Background(), "u1", out.Code), ErrExpired)

	e, err := f.repo.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, repository.OTPStateConsumed, e.State)
}

func TestConsume_WrongCodeLeavesEntryActive(t *testing.T) {
	f := newFixture(t)
	out := f.generate(t, "u1", nil)

	wrong := "000000"
	if out.Code == wrong {
		wrong = "111111"
	}
	require.ErrorIs(t, f.svc.Consume(context.Background(), "u1", wrong), ErrInvalidCode)
	require.ErrorIs(t, f.svc.Consume(context.Background(), "u1", "12345"), ErrInvalidCode)
	require.NoError(t, f.svc.Consume(context.Background(), "u1", out.Code))
}

func TestConsume_Expiry(t *testing.T) {
	f := newFixture(t)
	out := f.generate(t, "u1", f64(30))

	// expiresAt <= now cuenta como vencido
	f.clock.Advance(30 * time.Second)
	require.ErrorIs(t, f.svc.Consume(context.Background(), "u1", out.Code), ErrExpired)

	e, err := f.repo.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, repository.OTPStateExpired, e.State)

	// idempotente
	require.ErrorIs(t, f.svc.Consume(context.Background(), "u1", out.Code), ErrExpired)
}

func TestConsume_ExpiredEntryMissedBySweep(t *testing.T) {
	f := newFixture(t)
	now := f.clock.Now()
	require.NoError(t, f.repo.Put(context.Background(), repository.OTPEntry{
		ID: "e1", UserID: "u1", CodeHash: tokens.SHA256Hex("123456"),
		ExpiresAt: now.Add(-time.Second), GeneratedAt: now.Add(-time.Minute),
		State: repository.OTPStateActive,
	}))

	svc := NewService(Deps{Repo: noSweep{f.repo}, Gate: clientauth.NewGate(testClient, testSecret), Now: f.clock.Now})
	require.ErrorIs(t, svc.Consume(context.Background(), "u1", "123456"), ErrExpired)

	e, err := f.repo.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, repository.OTPStateExpired, e.State)
}

// noSweep simula un sweep que no hizo nada.
type noSweep struct{ *memory.OTPRepo }

func (noSweep) ExpireStale(context.Context, time.Time) (int, error) { return 0, nil }

func TestConsume_NotFound(t *testing.T) {
	f := newFixture(t)
	require.ErrorIs(t, f.svc.Consume(context.Background(), "ghost", "123456"), ErrNotFound)
}

func TestValidate(t *testing.T) {
	f := newFixture(t)
	out := f.generate(t, "u1", nil)
	ctx := context.Background()

	err := f.svc.Validate(ctx, ValidateInput{UserID: "u1", Code: out.Code, ClientID: "x", SecretKey: testSecret})
	require.ErrorIs(t, err, clientauth.ErrMismatch)

	err = f.svc.Validate(ctx, ValidateInput{UserID: "u1", ClientID: testClient, SecretKey: testSecret})
	require.ErrorIs(t, err, ErrMissingFields)

	// el intento con credenciales malas no consumió nada
	require.NoError(t, f.svc.Validate(ctx, ValidateInput{UserID: "u1", Code: out.Code, ClientID: testClient, SecretKey: testSecret}))
}

func TestConsume_ConcurrentSingleWinner(t *testing.T) {
	f := newFixture(t)
	out := f.generate(t, "u1", nil)

	var ok, expired int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := f.svc.Consume(context.Background(), "u1", out.Code)
			switch {
			case err == nil:
				atomic.AddInt32(&ok, 1)
			case errors.Is(err, ErrExpired):
				atomic.AddInt32(&expired, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, ok)
	assert.EqualValues(t, 19, expired)
}

func TestConsume_SeparateServicesShareStoreCAS(t *testing.T) {
	// dos "procesos" con locks propios sobre el mismo store
	f := newFixture(t)
	out := f.generate(t, "u1", nil)
	other := NewService(Deps{Repo: f.repo, Gate: clientauth.NewGate(testClient, testSecret), Now: f.clock.Now})

	var ok int32
	var wg sync.WaitGroup
	for _, s := range []Service{f.svc, other, f.svc, other} {
		wg.Add(1)
		go func(s Service) {
			defer wg.Done()
			if s.Consume(context.Background(), "u1", out.Code) == nil {
				atomic.AddInt32(&ok, 1)
			}
		}(s)
	}
	wg.Wait()
	assert.EqualValues(t, 1, ok)
}
