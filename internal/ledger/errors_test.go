package ledger

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "petidentity/pkg/domain-errors"
)

// Messages captured from geth, hardhat and anvil nodes. Each known phrase
// has a regression case so a node upgrade that rewords errors is caught here.
func TestClassifyMessage_CapturedStrings(t *testing.T) {
	cases := []struct {
		name    string
		message string
		want    Kind
	}{
		{"geth getPet revert", "execution reverted: Pet does not exist", KindNotFound},
		{"hardhat getPetIdByHash revert", "VM Exception while processing transaction: reverted with reason string 'Pet not found'", KindNotFound},
		{"ethers reason field", "Pet not found", KindNotFound},
		{"record missing", "execution reverted: Medical record does not exist", KindNotFound},
		{"duplicate registration geth", "execution reverted: DataHash already used", KindDuplicateFingerprint},
		{"duplicate registration hardhat", "Error: VM Exception while processing transaction: reverted with reason string 'DataHash already used'", KindDuplicateFingerprint},
		{"duplicate lower case", "datahash already used", KindDuplicateFingerprint},
		{"clinic modifier", "execution reverted: Only clinic can perform this action", KindAccessDenied},
		{"owner modifier", "execution reverted: Only contract owner", KindAccessDenied},
		{"pet owner modifier", "execution reverted: Only owner", KindAccessDenied},
		{"connection refused", "Post \"http://127.0.0.1:8545\": dial tcp 127.0.0.1:8545: connect: connection refused", KindUnclassified},
		{"nonce", "nonce too low", KindUnclassified},
		{"gas", "insufficient funds for gas * price + value", KindUnclassified},
		{"empty", "", KindUnclassified},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyMessage(tc.message))
		})
	}
}

type revertError struct {
	msg  string
	data any
}

func (e revertError) Error() string  { return e.msg }
func (e revertError) ErrorData() any { return e.data }

func revertData(t *testing.T, reason string) string {
	t.Helper()
	stringType, err := abi.NewType("string", "", nil)
	require.NoError(t, err)
	packed, err := abi.Arguments{{Type: stringType}}.Pack(reason)
	require.NoError(t, err)
	selector := crypto.Keccak256([]byte("Error(string)"))[:4]
	return hexutil.Encode(append(selector, packed...))
}

func TestClassify(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, Classify("getPet", nil))
	})

	t.Run("revert data wins over generic text", func(t *testing.T) {
		err := Classify("getPet", revertError{msg: "execution reverted", data: revertData(t, "Pet does not exist")})
		require.Error(t, err)

		var le *Error
		require.True(t, errors.As(err, &le))
		assert.Equal(t, KindNotFound, le.Kind)
		assert.Equal(t, "Pet does not exist", le.Message)
		assert.Equal(t, "getPet", le.Op)
	})

	t.Run("undecodable revert data falls back to text", func(t *testing.T) {
		err := Classify("registerPet", revertError{msg: "execution reverted: DataHash already used", data: "0xdeadbeef"})
		assert.True(t, IsKind(err, KindDuplicateFingerprint))
	})

	t.Run("wrapped remote errors are classified", func(t *testing.T) {
		err := Classify("registerPet", fmt.Errorf("estimate gas: %w", errors.New("execution reverted: Only clinic")))
		assert.True(t, IsKind(err, KindAccessDenied))
	})

	t.Run("timeouts are unclassified", func(t *testing.T) {
		err := Classify("registerPet", fmt.Errorf("post: %w", context.DeadlineExceeded))
		assert.True(t, IsKind(err, KindUnclassified))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("classified errors pass through", func(t *testing.T) {
		original := newError(KindEventMissing, "registerPet", "missing", nil)
		assert.Same(t, original, Classify("other", original))
	})
}

func TestToDomainError(t *testing.T) {
	cases := map[Kind]dErrors.Code{
		KindNotFound:             dErrors.CodeNotFound,
		KindDuplicateFingerprint: dErrors.CodeConflict,
		KindAccessDenied:         dErrors.CodeForbidden,
		KindEventMissing:         dErrors.CodeIntegrity,
		KindUnclassified:         dErrors.CodeLedgerUnavailable,
	}
	for kind, code := range cases {
		err := ToDomainError(newError(kind, "op", "msg", nil))
		assert.True(t, dErrors.HasCode(err, code), kind)
		assert.True(t, IsKind(err, kind), "kind survives wrapping")
	}
	assert.True(t, dErrors.HasCode(ToDomainError(errors.New("boom")), dErrors.CodeLedgerUnavailable))
	assert.NoError(t, ToDomainError(nil))
}
