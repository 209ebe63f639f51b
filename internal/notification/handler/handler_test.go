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

	"petidentity/internal/notification/handler/mocks"
	"petidentity/internal/notification/models"
	"petidentity/pkg/domain"
	dErrors "petidentity/pkg/domain-errors"
	"petidentity/pkg/testutil"
)

type NotificationHandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  chi.Router
}

func TestNotificationHandlerSuite(t *testing.T) {
	suite.Run(t, new(NotificationHandlerSuite))
}

func (s *NotificationHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	s.router = chi.NewRouter()
	New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
}

func (s *NotificationHandlerSuite) TestList() {
	s.service.EXPECT().List(gomock.Any(), int64(4)).Return([]*models.Notification{
		{ID: 1, UserID: 4, Title: "Transfer accepted", CreatedAt: time.Now()},
	}, nil)

	req := testutil.WithPrincipal(testutil.NewRequest(s.T(), http.MethodGet, "/notifications"), 4, domain.RoleOwner)
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusOK(s.T(), rr)

	body := testutil.UnmarshalResponse[[]models.Notification](s.T(), rr)
	s.Require().Len(*body, 1)
	s.Equal("Transfer accepted", (*body)[0].Title)
}

func (s *NotificationHandlerSuite) TestMarkRead() {
	s.Run("invalid id", func() {
		req := testutil.WithPrincipal(testutil.NewRequest(s.T(), http.MethodPatch, "/notifications/abc/read"), 4, domain.RoleOwner)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("not found", func() {
		s.service.EXPECT().MarkRead(gomock.Any(), int64(4), int64(9)).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "notification not found"))
		req := testutil.WithPrincipal(testutil.NewRequest(s.T(), http.MethodPatch, "/notifications/9/read"), 4, domain.RoleOwner)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})

	s.Run("marks read", func() {
		s.service.EXPECT().MarkRead(gomock.Any(), int64(4), int64(2)).
			Return(&models.Notification{ID: 2, UserID: 4, IsRead: true}, nil)
		req := testutil.WithPrincipal(testutil.NewRequest(s.T(), http.MethodPatch, "/notifications/2/read"), 4, domain.RoleOwner)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "isRead", true)
	})
}
