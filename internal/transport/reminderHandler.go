package transport

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ds124wfegd/reminder-engine/internal/entity"
	"github.com/ds124wfegd/reminder-engine/internal/service"

	"github.com/gin-gonic/gin"
)

type ReminderHandler struct {
	service service.ReminderService
}

func NewReminderHandler(reminderService service.ReminderService) *ReminderHandler {
	return &ReminderHandler{service: reminderService}
}

func (h *ReminderHandler) CreateReminder(c *gin.Context) {
	var req entity.ReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reminder, err := h.service.CreateReminder(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, entity.ErrInvalidNagInterval) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, reminder)
}

func (h *ReminderHandler) GetReminder(c *gin.Context) {
	id, ok := reminderID(c)
	if !ok {
		return
	}

	reminder, err := h.service.GetReminder(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, entity.ErrReminderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Reminder not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, reminder)
}

func (h *ReminderHandler) GetReminders(c *gin.Context) {
	reminders, err := h.service.GetAllReminders(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reminders": reminders,
		"count":     len(reminders),
	})
}

func (h *ReminderHandler) UpdateReminder(c *gin.Context) {
	id, ok := reminderID(c)
	if !ok {
		return
	}

	var req entity.ReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reminder, err := h.service.UpdateReminder(c.Request.Context(), id, &req)
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrReminderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Reminder not found"})
		case errors.Is(err, entity.ErrInvalidNagInterval):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, reminder)
}

func (h *ReminderHandler) DeleteReminder(c *gin.Context) {
	id, ok := reminderID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteReminder(c.Request.Context(), id); err != nil {
		if errors.Is(err, entity.ErrReminderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Reminder not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Reminder deleted"})
}

func (h *ReminderHandler) MarkReminderDone(c *gin.Context) {
	id, ok := reminderID(c)
	if !ok {
		return
	}

	if err := h.service.MarkReminderDone(c.Request.Context(), id); err != nil {
		if errors.Is(err, entity.ErrReminderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Reminder not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Reminder marked done"})
}

func reminderID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reminder id"})
		return 0, false
	}
	return id, true
}
