package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/vichar-ai/vichar-backend/api/middleware"
	pkgerrors "github.com/vichar-ai/vichar-backend/pkg/errors"
)

// requestUserID resolves the authenticated user from the request context.
func requestUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return userID, nil
}
