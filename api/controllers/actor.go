package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/lromeroa/grocerly-backend/api/middleware"
	pkgerrors "github.com/lromeroa/grocerly-backend/pkg/errors"
)

// actorID extracts the authenticated actor from the request context.
func actorID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.ActorIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "session context missing")
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "invalid session context")
	}
	return id, nil
}
