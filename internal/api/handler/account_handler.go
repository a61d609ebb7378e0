package handler

import (
	"encoding/json"
	"net/http"

	"fcmanager/internal/api/middleware"
	"fcmanager/internal/app/service"
	"fcmanager/internal/common"

	"github.com/go-chi/chi/v5"
)

type AccountHandler struct {
	accountService *service.AccountService
}

func NewAccountHandler(accountService *service.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

func (h *AccountHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)
	r.Use(middleware.AdminOnly)
	r.Post("/{accountID}/approve", h.approve)
	r.Post("/{accountID}/reject", h.reject)
}

func (h *AccountHandler) approve(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.GetAccountIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing acting account")
		return
	}
	accountID := chi.URLParam(r, "accountID")

	message, err := h.accountService.Approve(r.Context(), accountID, adminID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithMessage(w, http.StatusOK, message)
}

type rejectAccountRequest struct {
	Reason string `json:"reason"`
}

func (h *AccountHandler) reject(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.GetAccountIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing acting account")
		return
	}
	accountID := chi.URLParam(r, "accountID")

	var req rejectAccountRequest
	if r.Body != nil {
		// Reason is optional; an empty body is fine.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	message, err := h.accountService.Reject(r.Context(), accountID, adminID, req.Reason)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithMessage(w, http.StatusOK, message)
}
