package response

import (
	"net/http"
	"testing"

	domainagg "github.com/yungbote/knowledgebase-backend/internal/domain/aggregates"
)

func TestStatusForCode(t *testing.T) {
	cases := []struct {
		code domainagg.ErrorCode
		want int
	}{
		{domainagg.CodeValidation, http.StatusBadRequest},
		{domainagg.CodeNotFound, http.StatusNotFound},
		{domainagg.CodeConflict, http.StatusConflict},
		{domainagg.CodeInvariantViolation, http.StatusUnprocessableEntity},
		{domainagg.CodePreconditionFailed, http.StatusPreconditionFailed},
		{domainagg.CodePermissionDenied, http.StatusForbidden},
		{domainagg.CodeRetryable, http.StatusServiceUnavailable},
		{domainagg.CodeInternal, http.StatusInternalServerError},
		{domainagg.ErrorCode(""), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := StatusForCode(tc.code); got != tc.want {
			t.Fatalf("StatusForCode(%q) = %d, want %d", tc.code, got, tc.want)
		}
	}
}
