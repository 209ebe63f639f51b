package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setLedgerEnv(t *testing.T) {
	t.Setenv("LEDGER_RPC_URL", "http://127.0.0.1:8545")
	t.Setenv("LEDGER_PRIVATE_KEY", "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")
	t.Setenv("LEDGER_CONTRACT_ADDRESS", "0x5FbDB2315678afecb367f032d93F642f64180aa3")
}

func TestLoadDefaults(t *testing.T) {
	setLedgerEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 12*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, []int64{1337, 31337}, cfg.Ledger.AutoProvisionChainIDs)
	assert.Equal(t, 500*time.Millisecond, cfg.Ledger.PollInterval)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.True(t, cfg.Database.AutoMigrate)
}

func TestLoadOverrides(t *testing.T) {
	setLedgerEnv(t)
	t.Setenv("LEDGER_AUTOPROVISION_CHAIN_IDS", " 5, 11155111 ")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("JWT_TTL", "30m")
	t.Setenv("DB_AUTO_MIGRATE", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []int64{5, 11155111}, cfg.Ledger.AutoProvisionChainIDs)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenTTL)
	assert.False(t, cfg.Database.AutoMigrate)
}

func TestLoadRejectsMalformedChainIDs(t *testing.T) {
	setLedgerEnv(t)
	t.Setenv("LEDGER_AUTOPROVISION_CHAIN_IDS", "1337,devnet")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid chain id "devnet"`)
}

func TestValidateReportsMissingLedgerSettings(t *testing.T) {
	err := Config{Auth: Auth{TokenTTL: time.Hour}, Ledger: Ledger{PollInterval: time.Second}}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LEDGER_RPC_URL is required")
	assert.Contains(t, err.Error(), "LEDGER_PRIVATE_KEY is required")
	assert.Contains(t, err.Error(), "LEDGER_CONTRACT_ADDRESS is required")
}
