// Package cache memoizes successful ledger record reads in Redis. Cached
// records prove a ledger id resolves; their fingerprint may lag behind the
// chain until the entry expires or is invalidated.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"

	"petidentity/internal/fingerprint"
	"petidentity/internal/ledger"
)

const keyPrefix = "ledger:pet:"

// Source reads records from the ledger.
type Source interface {
	ReadByID(ctx context.Context, ledgerID int64) (ledger.PetRecord, error)
}

// Reader is a read-through cache in front of Source. Redis failures degrade
// to direct reads.
type Reader struct {
	source Source
	rdb    redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

type Option func(*Reader)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Reader) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func New(source Source, rdb redis.Cmdable, ttl time.Duration, opts ...Option) *Reader {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	r := &Reader{source: source, rdb: rdb, ttl: ttl, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type entry struct {
	ID          int64  `json:"id"`
	Fingerprint string `json:"fingerprint"`
	Registrar   string `json:"registrar"`
	UpdatedAt   int64  `json:"updated_at"`
}

func (r *Reader) ReadByID(ctx context.Context, ledgerID int64) (ledger.PetRecord, error) {
	key := keyPrefix + strconv.FormatInt(ledgerID, 10)

	raw, err := r.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if rec, ok := decode(raw); ok {
			return rec, nil
		}
	case !errors.Is(err, redis.Nil):
		r.logger.WarnContext(ctx, "ledger cache read failed", "ledger_id", ledgerID, "error", err)
	}

	rec, err := r.source.ReadByID(ctx, ledgerID)
	if err != nil {
		return ledger.PetRecord{}, err
	}

	if payload, encErr := encode(rec); encErr == nil {
		if setErr := r.rdb.Set(ctx, key, payload, r.ttl).Err(); setErr != nil {
			r.logger.WarnContext(ctx, "ledger cache write failed", "ledger_id", ledgerID, "error", setErr)
		}
	}
	return rec, nil
}

// Invalidate drops the cached record for ledgerID.
func (r *Reader) Invalidate(ctx context.Context, ledgerID int64) {
	if err := r.rdb.Del(ctx, keyPrefix+strconv.FormatInt(ledgerID, 10)).Err(); err != nil {
		r.logger.WarnContext(ctx, "ledger cache invalidate failed", "ledger_id", ledgerID, "error", err)
	}
}

func encode(rec ledger.PetRecord) ([]byte, error) {
	return json.Marshal(entry{
		ID:          rec.ID,
		Fingerprint: rec.Fingerprint.String(),
		Registrar:   rec.Registrar.Hex(),
		UpdatedAt:   rec.UpdatedAt.Unix(),
	})
}

func decode(raw []byte) (ledger.PetRecord, bool) {
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil || e.ID <= 0 {
		return ledger.PetRecord{}, false
	}
	fp, err := fingerprint.Parse(e.Fingerprint)
	if err != nil {
		return ledger.PetRecord{}, false
	}
	return ledger.PetRecord{
		ID:          e.ID,
		Fingerprint: fp,
		Registrar:   common.HexToAddress(e.Registrar),
		UpdatedAt:   time.Unix(e.UpdatedAt, 0).UTC(),
	}, true
}
