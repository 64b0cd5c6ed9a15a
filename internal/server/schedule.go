package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	scheduledomain "github.com/paycalhq/paycal/internal/schedule/domain"
)

type createRuleRequest struct {
	ClientName string `json:"client_name"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
	Frequency  string `json:"frequency"`
	StartDate  string `json:"start_date"`
}

func (s *Server) CreateRule(c *gin.Context) {
	var req createRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	startDate, err := time.Parse("2006-01-02", strings.TrimSpace(req.StartDate))
	if err != nil {
		AbortWithError(c, newValidationError("start_date", "invalid_start_date", "start_date must be YYYY-MM-DD"))
		return
	}

	rule, err := s.scheduleSvc.Create(c.Request.Context(), scheduledomain.CreateRuleRequest{
		ClientName: req.ClientName,
		Amount:     req.Amount,
		Currency:   req.Currency,
		Frequency:  scheduledomain.Frequency(strings.ToLower(strings.TrimSpace(req.Frequency))),
		StartDate:  startDate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"rule": rule})
}

func (s *Server) ListRules(c *gin.Context) {
	resp, err := s.scheduleSvc.List(c.Request.Context(), scheduledomain.ListRuleRequest{
		PageToken:  c.Query("page_token"),
		PageSize:   parseInt32(c.Query("page_size")),
		ClientName: c.Query("client_name"),
		ActiveOnly: c.Query("active_only") == "true",
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetRule(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		AbortWithError(c, scheduledomain.ErrInvalidRuleID)
		return
	}
	rule, err := s.scheduleSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rule": rule})
}

func (s *Server) StopRule(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		AbortWithError(c, scheduledomain.ErrInvalidRuleID)
		return
	}
	rule, err := s.scheduleSvc.Stop(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rule": rule})
}

type excludeDateRequest struct {
	Date string `json:"date"`
}

func (s *Server) ExcludeRuleDate(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		AbortWithError(c, scheduledomain.ErrInvalidRuleID)
		return
	}

	var req excludeDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	rule, err := s.scheduleSvc.ExcludeDate(c.Request.Context(), id, req.Date)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rule": rule})
}

func (s *Server) DeleteRule(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		AbortWithError(c, scheduledomain.ErrInvalidRuleID)
		return
	}
	if err := s.scheduleSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func parseID(raw string) (snowflake.ID, bool) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
