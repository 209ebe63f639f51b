package cache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petidentity/internal/fingerprint"
	"petidentity/internal/ledger/ledgertest"
)

func TestUnreachableRedisFallsBackToLedger(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })

	l := ledgertest.New(31337)
	fp := fingerprint.Pet(fingerprint.PetSnapshot{PublicID: "PET-OFFLINE1"})
	id := l.Seed(fp)

	r := New(l, rdb, time.Minute, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	rec, err := r.ReadByID(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, fp, rec.Fingerprint)
	assert.Equal(t, 1, l.Calls(ledgertest.OpRead))
}

func TestDecodeRejectsCorruptEntries(t *testing.T) {
	_, ok := decode([]byte(`{"id":3,"fingerprint":"nothex"}`))
	assert.False(t, ok)

	_, ok = decode([]byte(`not json`))
	assert.False(t, ok)
}
