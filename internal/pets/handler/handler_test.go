package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	correctionmodels "petidentity/internal/corrections/models"
	"petidentity/internal/pets/handler/mocks"
	"petidentity/internal/pets/models"
	"petidentity/pkg/domain"
	dErrors "petidentity/pkg/domain-errors"
	"petidentity/pkg/requestcontext"
	"petidentity/pkg/testutil"
)

type PetHandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  chi.Router
}

func TestPetHandlerSuite(t *testing.T) {
	suite.Run(t, new(PetHandlerSuite))
}

func (s *PetHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	h := New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.router = chi.NewRouter()
	h.RegisterPublic(s.router)
	h.Register(s.router)
}

func (s *PetHandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func samplePet() *models.Pet {
	ledgerID := int64(12)
	return &models.Pet{
		ID: 3, PublicID: "PET-1A2B3C4D", Name: "Rex", Species: "dog",
		BirthDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), OwnerID: 7,
		Status: domain.PetStatusRegistered, LedgerID: &ledgerID, CreatedAt: time.Now(),
	}
}

func (s *PetHandlerSuite) TestCreate() {
	body := map[string]string{"name": "Rex", "species": "dog", "birthDate": "2020-01-01"}

	s.Run("owner creates", func() {
		s.service.EXPECT().CreatePet(gomock.Any(), int64(7), gomock.Any()).Return(samplePet(), nil)
		req := testutil.WithPrincipal(testutil.NewJSONRequest(s.T(), http.MethodPost, "/pets", body), 7, domain.RoleOwner)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		testutil.AssertJSONContains(s.T(), rr, "birthDate", "2020-01-01")
		testutil.AssertJSONContains(s.T(), rr, "ledgerId", float64(12))
	})

	s.Run("clinic cannot create", func() {
		req := testutil.WithPrincipal(testutil.NewJSONRequest(s.T(), http.MethodPost, "/pets", body), 2, domain.RoleClinic)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusForbidden)
	})

	s.Run("missing species", func() {
		req := testutil.WithPrincipal(testutil.NewJSONRequest(s.T(), http.MethodPost, "/pets",
			map[string]string{"name": "Rex", "birthDate": "2020-01-01"}), 7, domain.RoleOwner)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("ledger unavailable", func() {
		s.service.EXPECT().CreatePet(gomock.Any(), int64(7), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeLedgerUnavailable, "ledger call failed"))
		req := testutil.WithPrincipal(testutil.NewJSONRequest(s.T(), http.MethodPost, "/pets", body), 7, domain.RoleOwner)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusServiceUnavailable, "ledger_unavailable")
	})
}

func (s *PetHandlerSuite) TestGet() {
	s.Run("bad id", func() {
		req := testutil.WithPrincipal(testutil.NewRequest(s.T(), http.MethodGet, "/pets/abc"), 7, domain.RoleOwner)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("passes the principal", func() {
		want := requestcontext.Principal{UserID: 7, Role: domain.RoleOwner}
		s.service.EXPECT().GetPet(gomock.Any(), want, int64(3)).
			Return(nil, dErrors.New(dErrors.CodeForbidden, "you do not own this pet"))
		req := testutil.WithPrincipal(testutil.NewRequest(s.T(), http.MethodGet, "/pets/3"), 7, domain.RoleOwner)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "forbidden")
	})
}

func (s *PetHandlerSuite) TestList() {
	s.service.EXPECT().ListPets(gomock.Any(), gomock.Any(), "rex").Return([]*models.Pet{samplePet()}, nil)
	req := testutil.WithPrincipal(testutil.NewRequest(s.T(), http.MethodGet, "/pets?search=rex"), 2, domain.RoleClinic)
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusOK(s.T(), rr)
	body := testutil.UnmarshalResponse[[]models.PetResponse](s.T(), rr)
	s.Len(*body, 1)
}

func (s *PetHandlerSuite) TestTransfer() {
	s.Run("initiate", func() {
		s.service.EXPECT().InitiateTransfer(gomock.Any(), int64(7), int64(3), "sari@example.com").
			Return(&models.OwnershipRecord{ID: 1, PetID: 3, FromOwnerID: 7, ToOwnerID: 8, CreatedAt: time.Now()}, nil)
		req := testutil.WithPrincipal(testutil.NewJSONRequest(s.T(), http.MethodPost, "/pets/3/transfer",
			map[string]string{"newOwnerEmail": "sari@example.com"}), 7, domain.RoleOwner)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		testutil.AssertJSONContains(s.T(), rr, "toOwnerId", float64(8))
	})

	s.Run("pending transfer conflicts", func() {
		s.service.EXPECT().InitiateTransfer(gomock.Any(), int64(7), int64(3), "sari@example.com").
			Return(nil, dErrors.New(dErrors.CodeConflict, "a transfer is already pending for this pet"))
		req := testutil.WithPrincipal(testutil.NewJSONRequest(s.T(), http.MethodPost, "/pets/3/transfer",
			map[string]string{"newOwnerEmail": "sari@example.com"}), 7, domain.RoleOwner)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "conflict")
	})

	s.Run("accept", func() {
		s.service.EXPECT().AcceptTransfer(gomock.Any(), int64(8), int64(3)).Return(samplePet(), nil)
		req := testutil.WithPrincipal(testutil.NewRequest(s.T(), http.MethodPost, "/pets/3/transfer/accept"), 8, domain.RoleOwner)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)
	})
}

func (s *PetHandlerSuite) TestRequestCorrection() {
	s.service.EXPECT().RequestCorrection(gomock.Any(), int64(7), int64(3), &models.CorrectionInput{Field: "species", NewValue: "canine-mix"}).
		Return(&correctionmodels.CorrectionRequest{ID: 5, PetID: 3, Field: correctionmodels.FieldSpecies,
			OldValue: "dog", NewValue: "canine-mix", Status: domain.ReviewPending}, nil)
	req := testutil.WithPrincipal(testutil.NewJSONRequest(s.T(), http.MethodPost, "/pets/3/corrections",
		map[string]string{"field": "species", "newValue": "canine-mix"}), 7, domain.RoleOwner)
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	testutil.AssertJSONContains(s.T(), rr, "status", "PENDING")
}

func (s *PetHandlerSuite) TestTraceIsPublic() {
	s.service.EXPECT().Trace(gomock.Any(), "PET-1A2B3C4D").Return(&models.Trace{
		PublicID: "PET-1A2B3C4D", Name: "Rex", OwnerName: "Budi SP", Vaccinations: []models.Vaccination{},
	}, nil)
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/trace/PET-1A2B3C4D"))
	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "ownerName", "Budi SP")
}
