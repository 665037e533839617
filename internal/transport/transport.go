package transport

import (
	"time"

	"github.com/ds124wfegd/reminder-engine/internal/service"
	"github.com/ds124wfegd/reminder-engine/internal/transport/middleware"

	"github.com/gin-gonic/gin"
)

func InitRoutes(reminderService service.ReminderService) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())

	handler := NewReminderHandler(reminderService)

	api := router.Group("/api/v1")
	{
		api.POST("/reminders", handler.CreateReminder)
		api.GET("/reminders", handler.GetReminders)
		api.GET("/reminders/:id", handler.GetReminder)
		api.PUT("/reminders/:id", handler.UpdateReminder)
		api.DELETE("/reminders/:id", handler.DeleteReminder)
		// Dismissing a notification on the consumer side posts here.
		api.POST("/reminders/:id/done", handler.MarkReminderDone)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "healthy",
			"service":   "reminder-engine",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	return router
}
