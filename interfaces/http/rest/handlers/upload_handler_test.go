package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "omnichannel/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeIssuer struct{}

func (fakeIssuer) IssueUploadLink(ctx context.Context, fileName string) (string, error) {
	if strings.TrimSpace(fileName) == "" {
		return "", apperrors.NewValidationError("file name is required")
	}
	return "https://bucket.example.com/" + fileName + "?signed", nil
}

func TestIssueUploadLinkHandler(t *testing.T) {
	handler := NewUploadHandler(fakeIssuer{}, zap.NewNop())

	t.Run("returns the signed url", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/uploads/token?fileName=contract.pdf", nil)
		rec := httptest.NewRecorder()

		handler.IssueUploadLink(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Data UploadLinkResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "contract.pdf", resp.Data.FileName)
		assert.Contains(t, resp.Data.UploadURL, "contract.pdf")
	})

	t.Run("missing file name yields 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/uploads/token", nil)
		rec := httptest.NewRecorder()

		handler.IssueUploadLink(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
