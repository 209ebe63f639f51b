package ledger

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// findEvent returns the first log emitted by contract whose topic matches event.
func findEvent(contractABI abi.ABI, contract common.Address, event string, logs []*types.Log) (*types.Log, bool) {
	ev, ok := contractABI.Events[event]
	if !ok {
		return nil, false
	}
	for _, l := range logs {
		if l == nil || l.Address != contract || len(l.Topics) == 0 {
			continue
		}
		if l.Topics[0] == ev.ID {
			return l, true
		}
	}
	return nil, false
}

// decodeEvent unpacks both indexed and non-indexed arguments of l into a map.
func decodeEvent(contractABI abi.ABI, event string, l *types.Log) (map[string]any, error) {
	ev, ok := contractABI.Events[event]
	if !ok {
		return nil, fmt.Errorf("event %s not in ABI", event)
	}
	out := make(map[string]any)
	if len(l.Data) > 0 {
		if err := contractABI.UnpackIntoMap(out, event, l.Data); err != nil {
			return nil, fmt.Errorf("unpack %s data: %w", event, err)
		}
	}
	var indexed abi.Arguments
	for _, arg := range ev.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	if err := abi.ParseTopicsIntoMap(out, indexed, l.Topics[1:]); err != nil {
		return nil, fmt.Errorf("parse %s topics: %w", event, err)
	}
	return out, nil
}

// eventID reads a uint256 argument from a decoded event as an int64 id.
func eventID(values map[string]any, name string) (int64, error) {
	v, ok := values[name].(*big.Int)
	if !ok || v == nil {
		return 0, fmt.Errorf("event argument %s missing", name)
	}
	if !v.IsInt64() || v.Sign() <= 0 {
		return 0, fmt.Errorf("event argument %s out of range: %s", name, v)
	}
	return v.Int64(), nil
}

// registeredPetID extracts petId from the PetRegistered event of a receipt.
func registeredPetID(contract common.Address, receipt *types.Receipt) (int64, error) {
	l, ok := findEvent(RegistryABI, contract, eventPetRegistered, receipt.Logs)
	if !ok {
		return 0, newError(KindEventMissing, methodRegisterPet,
			eventPetRegistered+" event not found in transaction receipt", nil)
	}
	values, err := decodeEvent(RegistryABI, eventPetRegistered, l)
	if err != nil {
		return 0, newError(KindEventMissing, methodRegisterPet, "failed to decode "+eventPetRegistered, err)
	}
	id, err := eventID(values, "petId")
	if err != nil {
		return 0, newError(KindEventMissing, methodRegisterPet, "failed to decode "+eventPetRegistered, err)
	}
	return id, nil
}

// addedRecordID extracts recordId from the MedicalRecordAdded event of a receipt.
func addedRecordID(contract common.Address, receipt *types.Receipt) (int64, error) {
	l, ok := findEvent(RegistryABI, contract, eventMedicalRecordAdded, receipt.Logs)
	if !ok {
		return 0, newError(KindEventMissing, methodAddMedicalRecord,
			eventMedicalRecordAdded+" event not found in transaction receipt", nil)
	}
	values, err := decodeEvent(RegistryABI, eventMedicalRecordAdded, l)
	if err != nil {
		return 0, newError(KindEventMissing, methodAddMedicalRecord, "failed to decode "+eventMedicalRecordAdded, err)
	}
	id, err := eventID(values, "recordId")
	if err != nil {
		return 0, newError(KindEventMissing, methodAddMedicalRecord, "failed to decode "+eventMedicalRecordAdded, err)
	}
	return id, nil
}
