package handlers

import (
	"net/http"

	"omnichannel/application/ports"
	"omnichannel/pkg/common"
	apperrors "omnichannel/pkg/errors"

	"go.uber.org/zap"
)

// UploadHandler issues presigned upload links for activity documents.
type UploadHandler struct {
	issuer ports.UploadLinkIssuer
	logger *zap.Logger
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(issuer ports.UploadLinkIssuer, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{
		issuer: issuer,
		logger: logger,
	}
}

// UploadLinkResponse carries the signed URL back to the caller.
type UploadLinkResponse struct {
	FileName  string `json:"fileName"`
	UploadURL string `json:"uploadUrl"`
}

// IssueUploadLink handles GET /uploads/token?fileName=...
func (h *UploadHandler) IssueUploadLink(w http.ResponseWriter, r *http.Request) {
	fileName := r.URL.Query().Get("fileName")

	url, err := h.issuer.IssueUploadLink(r.Context(), fileName)
	if err != nil {
		if apperrors.IsValidation(err) {
			common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.ValidationError, err.Error())
			return
		}
		h.logger.Error("failed to issue upload link",
			zap.String("fileName", fileName),
			zap.Error(err),
		)
		common.RespondError(w, http.StatusInternalServerError, common.StandardErrorCodes.InternalError, "Failed to issue upload link")
		return
	}

	common.RespondJSON(w, http.StatusOK, UploadLinkResponse{
		FileName:  fileName,
		UploadURL: url,
	})
}
