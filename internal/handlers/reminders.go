package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"REMINDME_BACK-END/internal/dto"
	"REMINDME_BACK-END/internal/logging"
	"REMINDME_BACK-END/internal/models"
	"REMINDME_BACK-END/internal/services"
	"REMINDME_BACK-END/internal/utils"
)

// RemindersHandler manages reminder endpoints
type RemindersHandler struct {
	reminders *services.ReminderService
	logger    logging.Logger
}

// NewRemindersHandler creates a new RemindersHandler
func NewRemindersHandler(reminders *services.ReminderService, logger logging.Logger) *RemindersHandler {
	return &RemindersHandler{reminders: reminders, logger: logger}
}

// CreateReminder handles POST /reminders
// @Summary Create a reminder
// @Tags reminders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.ReminderRequest true "Reminder payload"
// @Success 201 {object} dto.ReminderEnvelope
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /reminders [post]
func (h *RemindersHandler) CreateReminder(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "Not logged in")
		return
	}

	var req dto.ReminderRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return
	}

	rem, err := h.reminders.Create(r.Context(), userID, toReminderInput(req))
	if err != nil {
		writeError(w, r, h.logger, err, "Reminder")
		return
	}

	utils.WriteJSONResponse(w, http.StatusCreated, dto.ReminderEnvelope{
		Message:  "Reminder created successfully!",
		Reminder: toReminderResponse(rem),
	})
}

// ListReminders handles GET /reminders
// @Summary List reminders
// @Description Reminders owned by the current user, earliest due date first
// @Tags reminders
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.ReminderResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /reminders [get]
func (h *RemindersHandler) ListReminders(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "Not logged in")
		return
	}

	list, err := h.reminders.List(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err, "Reminder")
		return
	}

	out := make([]dto.ReminderResponse, 0, len(list))
	for i := range list {
		out = append(out, toReminderResponse(&list[i]))
	}
	utils.WriteJSONResponse(w, http.StatusOK, out)
}

// GetReminder handles GET /reminders/{id}
// @Summary Get a reminder
// @Tags reminders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Reminder ID"
// @Success 200 {object} dto.ReminderResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /reminders/{id} [get]
func (h *RemindersHandler) GetReminder(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.pathParams(w, r)
	if !ok {
		return
	}

	rem, err := h.reminders.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, r, h.logger, err, "Reminder")
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, toReminderResponse(rem))
}

// UpdateReminder handles PUT /reminders/{id}
// @Summary Replace a reminder
// @Description Replaces title, description and due_date. An omitted description is cleared.
// @Tags reminders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Reminder ID"
// @Param payload body dto.ReminderRequest true "Reminder payload"
// @Success 200 {object} dto.ReminderEnvelope
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /reminders/{id} [put]
func (h *RemindersHandler) UpdateReminder(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.pathParams(w, r)
	if !ok {
		return
	}

	var req dto.ReminderRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return
	}

	rem, err := h.reminders.Update(r.Context(), userID, id, toReminderInput(req))
	if err != nil {
		writeError(w, r, h.logger, err, "Reminder")
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, dto.ReminderEnvelope{
		Message:  "Reminder updated successfully!",
		Reminder: toReminderResponse(rem),
	})
}

// DeleteReminder handles DELETE /reminders/{id}
// @Summary Delete a reminder
// @Tags reminders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Reminder ID"
// @Success 200 {object} dto.MessageResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /reminders/{id} [delete]
func (h *RemindersHandler) DeleteReminder(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.pathParams(w, r)
	if !ok {
		return
	}

	if err := h.reminders.Delete(r.Context(), userID, id); err != nil {
		writeError(w, r, h.logger, err, "Reminder")
		return
	}

	utils.WriteMessageResponse(w, http.StatusOK, "Reminder deleted successfully!")
}

// pathParams extracts the session user and the {id} path parameter, writing
// the error response itself when either is missing or malformed.
func (h *RemindersHandler) pathParams(w http.ResponseWriter, r *http.Request) (userID, id int64, ok bool) {
	userID, ok = utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "Not logged in")
		return 0, 0, false
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid reminder id", "id must be a positive integer")
		return 0, 0, false
	}
	return userID, id, true
}

func toReminderInput(req dto.ReminderRequest) services.ReminderInput {
	return services.ReminderInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
	}
}

func toReminderResponse(rem *models.Reminder) dto.ReminderResponse {
	resp := dto.ReminderResponse{
		ID:          rem.ID,
		UserID:      rem.UserID,
		Title:       rem.Title,
		Description: rem.Description,
		DueDate:     utils.FormatDate(rem.DueDate),
		CreatedAt:   utils.FormatTimestamp(rem.CreatedAt),
		UpdatedAt:   utils.FormatTimestamp(rem.UpdatedAt),
	}
	if rem.NotifiedAt != nil {
		s := utils.FormatTimestamp(*rem.NotifiedAt)
		resp.NotifiedAt = &s
	}
	return resp
}
