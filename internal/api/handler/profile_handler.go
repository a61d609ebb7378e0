package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"fcmanager/internal/api/middleware"
	"fcmanager/internal/app/service"
	"fcmanager/internal/common"

	"github.com/go-chi/chi/v5"
)

type ProfileHandler struct {
	profileService *service.ProfileService
	accountService *service.AccountService
}

func NewProfileHandler(profileService *service.ProfileService, accountService *service.AccountService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService, accountService: accountService}
}

func (h *ProfileHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)
	r.Get("/", h.get)
	r.Put("/", h.update)
}

// get auto-provisions a default profile (username as nickname, empty name
// and department) on the first read, then retries once.
func (h *ProfileHandler) get(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing acting account")
		return
	}
	includeTimestamps := r.URL.Query().Get("include_timestamps") == "true"

	view, err := h.profileService.Get(r.Context(), accountID, includeTimestamps)
	if errors.Is(err, common.ErrNotFound) {
		username, uerr := h.accountService.GetUsername(r.Context(), accountID)
		if uerr != nil {
			common.RespondWithError(w, common.HTTPStatusFromError(uerr), uerr.Error())
			return
		}
		if _, uerr = h.profileService.Upsert(r.Context(), accountID, username, "", ""); uerr != nil {
			common.RespondWithError(w, common.HTTPStatusFromError(uerr), uerr.Error())
			return
		}
		view, err = h.profileService.Get(r.Context(), accountID, includeTimestamps)
	}
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, view)
}

type updateProfileRequest struct {
	Nickname   string `json:"nickname"`
	Name       string `json:"name"`
	Department string `json:"department"`
}

func (h *ProfileHandler) update(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing acting account")
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	if req.Nickname == "" || req.Name == "" || req.Department == "" {
		common.RespondWithError(w, http.StatusBadRequest, "nickname, name and department are required")
		return
	}

	message, err := h.profileService.Upsert(r.Context(), accountID, req.Nickname, req.Name, req.Department)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithMessage(w, http.StatusOK, message)
}
