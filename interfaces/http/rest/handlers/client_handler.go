package handlers

import (
	"net/http"
	"strconv"

	"omnichannel/application/ports"
	"omnichannel/domain/entities"
	"omnichannel/pkg/common"
	apperrors "omnichannel/pkg/errors"
	"omnichannel/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// ClientHandler handles client CRUD requests. It talks to the repository
// port only, so it has no idea whether the primary or the secondary store
// served a given request.
type ClientHandler struct {
	repo   ports.ClientRepository
	logger *zap.Logger
}

// NewClientHandler creates a new client handler.
func NewClientHandler(repo ports.ClientRepository, logger *zap.Logger) *ClientHandler {
	return &ClientHandler{
		repo:   repo,
		logger: logger,
	}
}

// CreateClientRequest represents the request body for creating a client
type CreateClientRequest struct {
	FullName             string `json:"fullName" validate:"required,min=1,max=100"`
	Email                string `json:"email" validate:"required,email"`
	Status               string `json:"status,omitempty" validate:"omitempty,max=64"`
	AssignedManagerEmail string `json:"assignedManagerEmail,omitempty" validate:"omitempty,email"`
}

// UpdateClientRequest represents the request body for updating a client.
// Absent fields leave the stored value untouched.
type UpdateClientRequest struct {
	FullName             *string `json:"fullName,omitempty" validate:"omitempty,min=1,max=100"`
	Email                *string `json:"email,omitempty" validate:"omitempty,email"`
	Status               *string `json:"status,omitempty" validate:"omitempty,max=64"`
	AssignedManagerEmail *string `json:"assignedManagerEmail,omitempty" validate:"omitempty,email"`
}

// ListClients handles GET /clients
func (h *ClientHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.repo.GetAll(r.Context())
	if err != nil {
		h.logger.Error("failed to list clients", zap.Error(err))
		h.respondRepositoryError(w, err, "Failed to list clients")
		return
	}

	common.RespondJSON(w, http.StatusOK, clients)
}

// GetClient handles GET /clients/{clientID}
func (h *ClientHandler) GetClient(w http.ResponseWriter, r *http.Request) {
	id, ok := h.clientID(w, r)
	if !ok {
		return
	}

	client, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get client", zap.Int("clientID", id), zap.Error(err))
		h.respondRepositoryError(w, err, "Failed to retrieve client")
		return
	}
	if client == nil {
		common.RespondError(w, http.StatusNotFound, common.StandardErrorCodes.NotFound, "Client not found")
		return
	}

	common.RespondJSON(w, http.StatusOK, client)
}

// CreateClient handles POST /clients
func (h *ClientHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req CreateClientRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.ValidationError, err.Error())
		return
	}

	client := &entities.Client{
		FullName:             req.FullName,
		Email:                req.Email,
		Status:               req.Status,
		AssignedManagerEmail: req.AssignedManagerEmail,
	}

	created, err := h.repo.Create(r.Context(), client)
	if err != nil {
		h.logger.Error("failed to create client",
			zap.String("email", req.Email),
			zap.Error(err),
		)
		h.respondRepositoryError(w, err, "Failed to create client")
		return
	}

	common.RespondJSON(w, http.StatusCreated, created)
}

// UpdateClient handles PUT /clients/{clientID}
func (h *ClientHandler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	id, ok := h.clientID(w, r)
	if !ok {
		return
	}

	var req UpdateClientRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.ValidationError, err.Error())
		return
	}

	client, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to load client for update", zap.Int("clientID", id), zap.Error(err))
		h.respondRepositoryError(w, err, "Failed to update client")
		return
	}
	if client == nil {
		common.RespondError(w, http.StatusNotFound, common.StandardErrorCodes.NotFound, "Client not found")
		return
	}

	attribution := entities.AttributionCore
	update := entities.ClientUpdate{
		FullName:             req.FullName,
		Email:                req.Email,
		Status:               req.Status,
		AssignedManagerEmail: req.AssignedManagerEmail,
		LastModifiedBy:       &attribution,
	}
	update.Apply(client)

	if err := h.repo.Update(r.Context(), client); err != nil {
		h.logger.Error("failed to update client", zap.Int("clientID", id), zap.Error(err))
		h.respondRepositoryError(w, err, "Failed to update client")
		return
	}

	common.RespondJSON(w, http.StatusOK, client)
}

// DeleteClient handles DELETE /clients/{clientID}. The repository treats an
// absent identifier as a no-op, so presence is checked here to give the API
// its 404.
func (h *ClientHandler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	id, ok := h.clientID(w, r)
	if !ok {
		return
	}

	exists, err := h.repo.Exists(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to check client", zap.Int("clientID", id), zap.Error(err))
		h.respondRepositoryError(w, err, "Failed to delete client")
		return
	}
	if !exists {
		common.RespondError(w, http.StatusNotFound, common.StandardErrorCodes.NotFound, "Client not found")
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		h.logger.Error("failed to delete client", zap.Int("clientID", id), zap.Error(err))
		h.respondRepositoryError(w, err, "Failed to delete client")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// clientID parses the path parameter, responding with 400 when it is not a
// positive integer.
func (h *ClientHandler) clientID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "clientID")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "Client ID must be a positive integer")
		return 0, false
	}
	return id, true
}

// respondRepositoryError maps repository errors onto API statuses.
func (h *ClientHandler) respondRepositoryError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case apperrors.IsValidation(err):
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.ValidationError, err.Error())
	case apperrors.IsNotFound(err):
		common.RespondError(w, http.StatusNotFound, common.StandardErrorCodes.NotFound, err.Error())
	case apperrors.IsConflict(err):
		common.RespondError(w, http.StatusConflict, common.StandardErrorCodes.Conflict, err.Error())
	default:
		common.RespondError(w, http.StatusInternalServerError, common.StandardErrorCodes.InternalError, fallback)
	}
}
