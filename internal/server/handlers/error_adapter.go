package handlers

import (
	"net/http"

	apperrors "github.com/tarkovmcp/tarkovmcp/internal/errors"
)

// respondWithError writes err as a JSON error envelope with the request's
// correlation id.
func respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	apperrors.RespondWithError(w, r, err)
}
