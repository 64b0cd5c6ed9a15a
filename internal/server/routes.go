package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterAPIRoutes mounts every HTTP endpoint on the engine.
func (s *Server) RegisterAPIRoutes() {
	s.engine.GET("/healthz", s.Healthz)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Provider webhooks authenticate via signature, not API key.
	s.engine.POST("/webhooks/:provider", s.IngestWebhook)

	v1 := s.engine.Group("/v1")
	v1.Use(s.APIKeyRequired())
	{
		v1.POST("/rules", s.CreateRule)
		v1.GET("/rules", s.ListRules)
		v1.GET("/rules/:id", s.GetRule)
		v1.POST("/rules/:id/stop", s.StopRule)
		v1.POST("/rules/:id/exclusions", s.ExcludeRuleDate)
		v1.DELETE("/rules/:id", s.DeleteRule)

		v1.GET("/calendar", s.GetCalendar)
		v1.GET("/payments", s.ListPayments)

		v1.GET("/obligations", s.ListObligations)
		v1.POST("/obligations/mark-unpaid", s.MarkUnpaid)
		v1.POST("/obligations/:id/settle", s.SettleObligation)
		v1.POST("/obligations/:id/unsettle", s.UnsettleObligation)
		v1.POST("/obligations/:id/write-off", s.WriteOffObligation)
	}
}

// Healthz answers liveness probes.
func (s *Server) Healthz(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err != nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
