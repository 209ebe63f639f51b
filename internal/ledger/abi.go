package ledger

import (
	_ "embed"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

//go:embed registry.abi.json
var registryABIJSON string

// Contract method and event names of the pet identity registry.
const (
	methodRegisterPet         = "registerPet"
	methodUpdatePetBasicData  = "updatePetBasicData"
	methodAddMedicalRecord    = "addMedicalRecord"
	methodVerifyMedicalRecord = "verifyMedicalRecord"
	methodGetPet              = "getPet"
	methodGetPetIDByHash      = "getPetIdByHash"
	methodClinics             = "clinics"
	methodAddClinic           = "addClinic"
	methodContractOwner       = "contractOwner"

	eventPetRegistered      = "PetRegistered"
	eventMedicalRecordAdded = "MedicalRecordAdded"
)

// RegistryABI is the parsed contract interface.
var RegistryABI = mustParseABI(registryABIJSON)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic("ledger: parse registry ABI: " + err.Error())
	}
	return parsed
}
