package fs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dropDatabas3/procurauth/internal/domain/repository"
	"github.com/dropDatabas3/procurauth/internal/util/atomicwrite"
)

// otpRecord es el formato en disco. consumedOrExpired se mantiene por compatibilidad
// con archivos previos a "state".
type otpRecord struct {
	ID                string    `json:"id,omitempty"`
	UserID            string    `json:"userId"`
	CodeHash          string    `json:"codeHash"`
	ExpiresAt         time.Time `json:"expiresAt"`
	ConsumedOrExpired bool      `json:"consumedOrExpired"`
	GeneratedAt       time.Time `json:"generatedAt"`
	State             string    `json:"state,omitempty"`
}

func (r otpRecord) toEntry() repository.OTPEntry {
	e := repository.OTPEntry{
		ID:          r.ID,
		UserID:      r.UserID,
		CodeHash:    r.CodeHash,
		ExpiresAt:   r.ExpiresAt,
		GeneratedAt: r.GeneratedAt,
		State:       repository.OTPState(r.State),
	}
	if !e.State.Valid() {
		// archivo legacy: solo hay flag
		switch {
		case !r.ConsumedOrExpired:
			e.State = repository.OTPStateActive
		case e.ExpiredAt(time.Now()):
			e.State = repository.OTPStateExpired
		default:
			e.State = repository.OTPStateConsumed
		}
	}
	return e
}

func fromEntry(e repository.OTPEntry) otpRecord {
	return otpRecord{
		ID:                e.ID,
		UserID:            e.UserID,
		CodeHash:          e.CodeHash,
		ExpiresAt:         e.ExpiresAt.UTC(),
		ConsumedOrExpired: e.ConsumedOrExpired(),
		GeneratedAt:       e.GeneratedAt.UTC(),
		State:             string(e.State),
	}
}

// OTPRepo guarda las entradas en otp.json.
type OTPRepo struct {
	path string
	mu   sync.Mutex
}

func (r *OTPRepo) load() ([]otpRecord, error) {
	var recs []otpRecord
	if _, err := atomicwrite.ReadJSON(r.path, &recs); err != nil {
		return nil, fmt.Errorf("fs: load otp: %w", err)
	}
	return recs, nil
}

func (r *OTPRepo) save(recs []otpRecord) error {
	if recs == nil {
		recs = []otpRecord{}
	}
	if err := atomicwrite.WriteJSON(r.path, recs, filePerm); err != nil {
		return fmt.Errorf("fs: save otp: %w", err)
	}
	return nil
}

func (r *OTPRepo) ExpireStale(ctx context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	recs, err := r.load()
	if err != nil {
		return 0, err
	}
	n := 0
	for i, rec := range recs {
		e := rec.toEntry()
		if e.State == repository.OTPStateActive && e.ExpiredAt(now) {
			e.State = repository.OTPStateExpired
			recs[i] = fromEntry(e)
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return n, r.save(recs)
}

func (r *OTPRepo) Get(_ context.Context, userID string) (*repository.OTPEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	recs, err := r.load()
	if err != nil {
		return nil, err
	}
	for _, rec := range recs {
		if rec.UserID == userID {
			e := rec.toEntry()
			return &e, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *OTPRepo) Put(ctx context.Context, e repository.OTPEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	recs, err := r.load()
	if err != nil {
		return err
	}
	out := recs[:0]
	for _, rec := range recs {
		if rec.UserID != e.UserID {
			out = append(out, rec)
		}
	}
	out = append(out, fromEntry(e))
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.save(out)
}

func (r *OTPRepo) Transition(ctx context.Context, userID, entryID string, from, to repository.OTPState) (bool, error) {
	if err := repository.CheckTransition(from, to); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	recs, err := r.load()
	if err != nil {
		return false, err
	}
	for i, rec := range recs {
		if rec.UserID != userID {
			continue
		}
		e := rec.toEntry()
		if e.ID != entryID || e.State != from {
			return false, nil
		}
		e.State = to
		recs[i] = fromEntry(e)
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if err := r.save(recs); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}
