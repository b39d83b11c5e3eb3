package httpadapter

import (
	"net/http"

	"github.com/kirillkom/document-intake/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrRuleNotFound):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// publicErrorMessage keeps store and driver details out of responses; the full
// error is logged with the request id.
func publicErrorMessage(err error, docTypeID string) string {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return err.Error()
	case domain.IsKind(err, domain.ErrRuleNotFound):
		return "Unknown document type: " + docTypeID
	case domain.IsKind(err, domain.ErrTemporary):
		return "Rule store temporarily unavailable, retry later"
	case domain.IsKind(err, domain.ErrMisconfigured):
		return "Server configuration error"
	case domain.IsKind(err, domain.ErrInvalidRule):
		return "Document type rule is invalid: " + docTypeID
	default:
		return "Internal server error"
	}
}
