package http

import (
	"fmt"
	"net/http"
	"strconv"

	apperrors "tourdesk/pkg/errors"
	"tourdesk/pkg/model"
)

const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorRole = "X-Actor-Role"

	DefaultLimit = 50
	MaxLimit     = 200
)

// Actor resolves the already-authenticated caller from trusted headers.
// Token verification happens upstream; here the identity is taken as-is.
func Actor(r *http.Request) (string, model.Role, error) {
	actorID := r.Header.Get(HeaderActorID)
	if actorID == "" {
		return "", "", apperrors.Forbidden("missing actor identity")
	}

	role := model.Role(r.Header.Get(HeaderActorRole))
	if !role.Valid() {
		return "", "", apperrors.Forbidden(fmt.Sprintf("unknown actor role: %q", role))
	}

	return actorID, role, nil
}

func ExtractLimitOffset(r *http.Request) (int, int64, error) {
	query := r.URL.Query()

	limit := DefaultLimit
	if limitStr := query.Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 0 {
			return 0, 0, apperrors.InvalidInput(fmt.Sprintf("invalid limit parameter: %s", limitStr))
		}
		limit = parsed
	}
	if limit == 0 || limit > MaxLimit {
		limit = MaxLimit
	}

	var offset int64
	if offsetStr := query.Get("offset"); offsetStr != "" {
		parsed, err := strconv.ParseInt(offsetStr, 10, 64)
		if err != nil || parsed < 0 {
			return 0, 0, apperrors.InvalidInput(fmt.Sprintf("invalid offset parameter: %s", offsetStr))
		}
		offset = parsed
	}

	return limit, offset, nil
}
