package testutil

import (
	"net/http"

	"petidentity/pkg/domain"
	"petidentity/pkg/requestcontext"
)

// WithPrincipal authenticates req as userID with role, bypassing token
// validation for handler tests mounted without the auth middleware.
func WithPrincipal(req *http.Request, userID int64, role domain.Role) *http.Request {
	return req.WithContext(requestcontext.WithPrincipal(req.Context(), requestcontext.Principal{UserID: userID, Role: role}))
}
