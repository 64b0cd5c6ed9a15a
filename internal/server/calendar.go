package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	calendardomain "github.com/paycalhq/paycal/internal/calendar/domain"
)

func (s *Server) GetCalendar(c *gin.Context) {
	view, err := s.calendarSvc.View(c.Request.Context(), calendardomain.ViewRequest{
		From: c.Query("from"),
		To:   c.Query("to"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
