package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"fcmanager/internal/api/middleware"
	"fcmanager/internal/app/service"
	"fcmanager/internal/common"
	"fcmanager/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type TaskHandler struct {
	taskService    *service.TaskService
	accountService *service.AccountService
}

func NewTaskHandler(taskService *service.TaskService, accountService *service.AccountService) *TaskHandler {
	return &TaskHandler{taskService: taskService, accountService: accountService}
}

func (h *TaskHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Patch("/{taskID}", h.modify)
	r.Post("/{taskID}/audit", h.audit)
	r.Get("/crawl/{fcTaskID}", h.crawlStatus)
	r.Delete("/crawl/{fcTaskID}", h.cancelCrawl)

	r.Group(func(admin chi.Router) {
		admin.Use(middleware.AdminOnly)
		admin.Delete("/{taskID}", h.delete)
	})
}

func (h *TaskHandler) create(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing acting account")
		return
	}

	var req service.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	// The role is read from the store, not the token, so a demotion takes
	// effect immediately for the auto-approval branch.
	role, err := h.accountService.GetRole(r.Context(), accountID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}

	task, err := h.taskService.Create(r.Context(), accountID, role, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) list(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing acting account")
		return
	}
	role, _ := middleware.GetRoleFromContext(r.Context())

	q := r.URL.Query()
	filter := model.TaskFilter{
		Status:   model.TaskStatus(q.Get("status")),
		Category: q.Get("category"),
	}

	// Regular users only ever see tasks they applied for or reviewed;
	// admins may scope to any account or see everything.
	if role == model.RoleAdmin {
		filter.UserID = q.Get("user_id")
	} else {
		filter.UserID = accountID
	}

	if v := q.Get("start_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			common.RespondWithError(w, http.StatusBadRequest, "Invalid start_date, expected YYYY-MM-DD")
			return
		}
		filter.StartDate = &t
	}
	if v := q.Get("end_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			common.RespondWithError(w, http.StatusBadRequest, "Invalid end_date, expected YYYY-MM-DD")
			return
		}
		// Inclusive bound: cover the whole end day.
		t = t.Add(24*time.Hour - time.Nanosecond)
		filter.EndDate = &t
	}

	page := queryInt(q.Get("page"), 1)
	pageSize := queryInt(q.Get("page_size"), 20)

	result, err := h.taskService.List(r.Context(), filter, page, pageSize)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, result)
}

func (h *TaskHandler) modify(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	var update model.TaskUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	message, err := h.taskService.Modify(r.Context(), taskID, update)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithMessage(w, http.StatusOK, message)
}

type auditTaskRequest struct {
	IsApproved *bool `json:"is_approved"`
}

func (h *TaskHandler) audit(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.GetAccountIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing acting account")
		return
	}
	taskID := chi.URLParam(r, "taskID")

	var req auditTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	if req.IsApproved == nil {
		common.RespondWithError(w, http.StatusBadRequest, "is_approved is required")
		return
	}

	message, err := h.taskService.Approve(r.Context(), taskID, adminID, *req.IsApproved)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithMessage(w, http.StatusOK, message)
}

func (h *TaskHandler) delete(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	message, err := h.taskService.Delete(r.Context(), taskID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithMessage(w, http.StatusOK, message)
}

func (h *TaskHandler) crawlStatus(w http.ResponseWriter, r *http.Request) {
	fcTaskID := chi.URLParam(r, "fcTaskID")

	status, err := h.taskService.CrawlStatus(r.Context(), fcTaskID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, status)
}

func (h *TaskHandler) cancelCrawl(w http.ResponseWriter, r *http.Request) {
	fcTaskID := chi.URLParam(r, "fcTaskID")

	if err := h.taskService.CancelCrawl(r.Context(), fcTaskID); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "crawl job cancelled")
}

func queryInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}
