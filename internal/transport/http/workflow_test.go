package httptransport_test

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"petidentity/internal/corrections"
	correctionstore "petidentity/internal/corrections/store"
	"petidentity/internal/identity"
	jwttoken "petidentity/internal/jwt_token"
	"petidentity/internal/ledger/access"
	"petidentity/internal/ledger/ledgertest"
	"petidentity/internal/medical"
	medicalservice "petidentity/internal/medical/service"
	medicalstore "petidentity/internal/medical/store"
	"petidentity/internal/notification"
	notificationstore "petidentity/internal/notification/store"
	"petidentity/internal/pets"
	petservice "petidentity/internal/pets/service"
	petstore "petidentity/internal/pets/store"
	"petidentity/internal/ratelimit"
	httptransport "petidentity/internal/transport/http"
	"petidentity/internal/users"
	userservice "petidentity/internal/users/service"
	userstore "petidentity/internal/users/store"
	"petidentity/pkg/platform/tx"
	"petidentity/pkg/testutil"
)

// newStack assembles every module on in-memory stores and an in-memory ledger.
func newStack(t *testing.T) (http.Handler, *ledgertest.Ledger) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	chain := ledgertest.New(31337)

	prov, err := access.New(chain, []int64{1337, 31337}, access.WithLogger(logger))
	require.NoError(t, err)
	resolver, err := identity.New(chain, prov, identity.WithLogger(logger))
	require.NoError(t, err)

	tokens := jwttoken.NewJWTService("workflow-key", "petidentity", "petidentity-api", time.Hour)
	directory, err := users.NewService(userstore.NewInMemory(), tokens,
		userservice.WithBcryptCost(bcrypt.MinCost), userservice.WithLogger(logger))
	require.NoError(t, err)

	notifications, err := notification.NewService(notificationstore.NewInMemory())
	require.NoError(t, err)
	notifier := notification.NewNotifier(notifications, logger)

	runner := &tx.LocalRunner{}
	records := medicalstore.NewInMemory()
	fixes := correctionstore.NewInMemory()
	petSvc, err := pets.NewService(petstore.NewInMemory(), runner, resolver, directory, fixes,
		petservice.WithLogger(logger),
		petservice.WithNotifier(notifier),
		petservice.WithVaccinations(medicalservice.NewVaccinations(records)),
	)
	require.NoError(t, err)
	medicalSvc, err := medical.NewService(records, petSvc, chain, prov, medicalservice.WithLogger(logger))
	require.NoError(t, err)
	correctionSvc, err := corrections.NewService(fixes, runner, petSvc, chain, prov)
	require.NoError(t, err)
	guard, err := ratelimit.New(nil, ratelimit.WithLogger(logger))
	require.NoError(t, err)

	return httptransport.NewRouter(httptransport.Config{
		Logger: logger,
		Tokens: tokens,
		Modules: []httptransport.Module{
			users.NewHandler(directory, logger, users.WithLoginGuard(guard)),
			pets.NewHandler(petSvc, logger),
			medical.NewHandler(medicalSvc, logger),
			corrections.NewHandler(correctionSvc, logger),
			notification.NewHandler(notifications, logger),
		},
	}), chain
}

func signUp(t *testing.T, router http.Handler, name, email, role string) string {
	t.Helper()
	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/auth/register", map[string]string{
		"name": name, "email": email, "password": "correct-horse", "role": role,
	}))
	testutil.AssertStatus(t, rr, http.StatusCreated)

	rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/auth/login", map[string]string{
		"email": email, "password": "correct-horse",
	}))
	testutil.AssertStatusOK(t, rr)
	return testutil.UnmarshalResponse[struct {
		AccessToken string `json:"accessToken"`
	}](t, rr).AccessToken
}

func TestRegistrationToVerifiedTrace(t *testing.T) {
	router, chain := newStack(t)

	testutil.Given(t, "an owner and a clinic with accounts", func(t *testing.T) {
		owner := signUp(t, router, "Budi Santoso", "budi@example.com", "OWNER")
		clinic := signUp(t, router, "Klinik Sehat", "klinik@example.com", "CLINIC")

		var petID int64
		var publicID string
		testutil.When(t, "the owner registers a pet", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.WithBearer(testutil.NewJSONRequest(t, http.MethodPost, "/pets", map[string]string{
				"name": "Milo", "species": "cat", "breed": "persian", "birthDate": "2021-04-02",
			}), owner))
			testutil.AssertStatus(t, rr, http.StatusCreated)
			pet := testutil.UnmarshalResponse[struct {
				ID       int64  `json:"id"`
				PublicID string `json:"publicId"`
				LedgerID *int64 `json:"ledgerId"`
			}](t, rr)
			petID, publicID = pet.ID, pet.PublicID

			testutil.Then(t, "the pet is registered on the ledger", func(t *testing.T) {
				require.NotNil(t, pet.LedgerID)
				assert.Equal(t, 1, chain.PetCount())
			})
		})

		var recordID int64
		testutil.When(t, "the clinic records a vaccination and verifies it", func(t *testing.T) {
			path := fmt.Sprintf("/pets/%d/medical-records", petID)
			rr := testutil.DoRequest(router, testutil.WithBearer(testutil.NewJSONRequest(t, http.MethodPost, path, map[string]string{
				"vaccineType": "rabies", "batchNumber": "RB-2024-17", "givenAt": "2024-02-10",
			}), clinic))
			testutil.AssertStatus(t, rr, http.StatusCreated)
			recordID = testutil.UnmarshalResponse[struct {
				ID int64 `json:"id"`
			}](t, rr).ID

			path = fmt.Sprintf("/medical-records/%d/verify", recordID)
			rr = testutil.DoRequest(router, testutil.WithBearer(testutil.NewJSONRequest(t, http.MethodPatch, path, map[string]string{
				"status": "VERIFIED",
			}), clinic))
			testutil.AssertStatusOK(t, rr)
			testutil.AssertJSONContains(t, rr, "status", "VERIFIED")

			testutil.Then(t, "a second review conflicts", func(t *testing.T) {
				rr := testutil.DoRequest(router, testutil.WithBearer(testutil.NewJSONRequest(t, http.MethodPatch, path, map[string]string{
					"status": "REJECTED",
				}), clinic))
				testutil.AssertStatusAndError(t, rr, http.StatusConflict, "conflict")
			})
		})

		testutil.Then(t, "the public trace shows the masked owner and the vaccination", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/trace/"+publicID))
			testutil.AssertStatusOK(t, rr)
			trace := testutil.UnmarshalResponse[struct {
				OwnerName    string `json:"ownerName"`
				Vaccinations []struct {
					VaccineType string `json:"vaccineType"`
					Status      string `json:"status"`
				} `json:"vaccinations"`
			}](t, rr)
			assert.Equal(t, "Budi S", trace.OwnerName)
			require.Len(t, trace.Vaccinations, 1)
			assert.Equal(t, "rabies", trace.Vaccinations[0].VaccineType)
			assert.Equal(t, "VERIFIED", trace.Vaccinations[0].Status)
		})

		testutil.And(t, "the owner cannot write medical records", func(t *testing.T) {
			path := fmt.Sprintf("/pets/%d/medical-records", petID)
			rr := testutil.DoRequest(router, testutil.WithBearer(testutil.NewJSONRequest(t, http.MethodPost, path, map[string]string{
				"vaccineType": "rabies", "batchNumber": "X", "givenAt": "2024-02-10",
			}), owner))
			testutil.AssertStatus(t, rr, http.StatusForbidden)
		})
	})
}

func TestCorrectionApprovalUpdatesLedger(t *testing.T) {
	router, chain := newStack(t)

	testutil.Given(t, "a registered pet", func(t *testing.T) {
		owner := signUp(t, router, "Sari", "sari@example.com", "OWNER")
		clinic := signUp(t, router, "Klinik Satwa", "satwa@example.com", "CLINIC")

		rr := testutil.DoRequest(router, testutil.WithBearer(testutil.NewJSONRequest(t, http.MethodPost, "/pets", map[string]string{
			"name": "Kopi", "species": "dog", "birthDate": "2020-01-15",
		}), owner))
		testutil.AssertStatus(t, rr, http.StatusCreated)
		pet := testutil.UnmarshalResponse[struct {
			ID       int64  `json:"id"`
			LedgerID *int64 `json:"ledgerId"`
		}](t, rr)
		require.NotNil(t, pet.LedgerID)
		before, ok := chain.PetFingerprint(*pet.LedgerID)
		require.True(t, ok)

		testutil.When(t, "the owner requests a breed correction and a clinic approves it", func(t *testing.T) {
			path := fmt.Sprintf("/pets/%d/corrections", pet.ID)
			rr := testutil.DoRequest(router, testutil.WithBearer(testutil.NewJSONRequest(t, http.MethodPost, path, map[string]string{
				"field": "breed", "newValue": "shiba inu",
			}), owner))
			testutil.AssertStatus(t, rr, http.StatusCreated)
			correctionID := testutil.UnmarshalResponse[struct {
				ID int64 `json:"id"`
			}](t, rr).ID

			path = fmt.Sprintf("/corrections/%d", correctionID)
			rr = testutil.DoRequest(router, testutil.WithBearer(testutil.NewJSONRequest(t, http.MethodPatch, path, map[string]any{
				"approve": true,
			}), clinic))
			testutil.AssertStatusOK(t, rr)

			testutil.Then(t, "the ledger fingerprint and the pet row change together", func(t *testing.T) {
				after, ok := chain.PetFingerprint(*pet.LedgerID)
				require.True(t, ok)
				assert.NotEqual(t, before, after)

				rr := testutil.DoRequest(router, testutil.WithBearer(testutil.NewRequest(t, http.MethodGet, fmt.Sprintf("/pets/%d", pet.ID)), owner))
				testutil.AssertStatusOK(t, rr)
				testutil.AssertJSONContains(t, rr, "breed", "shiba inu")
				testutil.AssertJSONContains(t, rr, "fingerprint", after.String())
			})
		})
	})
}

func TestLoginLockoutAcrossStack(t *testing.T) {
	router, _ := newStack(t)
	signUp(t, router, "Dewi", "dewi@example.com", "OWNER")

	for range 5 {
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/auth/login", map[string]string{
			"email": "dewi@example.com", "password": "not-the-password",
		}))
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	}

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/auth/login", map[string]string{
		"email": "dewi@example.com", "password": "correct-horse",
	}))
	testutil.AssertStatusAndError(t, rr, http.StatusTooManyRequests, "rate_limited")
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
}
