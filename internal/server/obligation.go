package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	obligationdomain "github.com/paycalhq/paycal/internal/obligation/domain"
)

func (s *Server) ListObligations(c *gin.Context) {
	req := obligationdomain.ListRequest{
		Status:     obligationdomain.Status(strings.TrimSpace(c.Query("status"))),
		Origin:     obligationdomain.Origin(strings.TrimSpace(c.Query("origin"))),
		Unresolved: c.Query("unresolved") == "true",
	}
	if raw := c.Query("rule_id"); raw != "" {
		id, ok := parseID(raw)
		if !ok {
			AbortWithError(c, obligationdomain.ErrInvalidRuleID)
			return
		}
		req.RuleID = id
	}
	if from, ok := parseOptionalDate(c.Query("from")); ok {
		req.From = from
	} else if c.Query("from") != "" {
		AbortWithError(c, newValidationError("from", "invalid_date", "from must be YYYY-MM-DD"))
		return
	}
	if to, ok := parseOptionalDate(c.Query("to")); ok {
		req.To = to
	} else if c.Query("to") != "" {
		AbortWithError(c, newValidationError("to", "invalid_date", "to must be YYYY-MM-DD"))
		return
	}

	resp, err := s.obligationSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type markUnpaidRequest struct {
	RuleID  string `json:"rule_id"`
	DueDate string `json:"due_date"`
}

func (s *Server) MarkUnpaid(c *gin.Context) {
	var req markUnpaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ruleID, ok := parseID(req.RuleID)
	if !ok {
		AbortWithError(c, obligationdomain.ErrInvalidRuleID)
		return
	}

	obligation, err := s.obligationSvc.MarkUnpaid(c.Request.Context(), obligationdomain.MarkUnpaidRequest{
		RuleID:  ruleID,
		DueDate: req.DueDate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"obligation": obligation})
}

type settleRequest struct {
	AmountPaid int64  `json:"amount_paid"`
	Method     string `json:"method"`
	Reference  string `json:"reference"`
}

func (s *Server) SettleObligation(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		AbortWithError(c, obligationdomain.ErrInvalidObligationID)
		return
	}

	var req settleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	obligation, err := s.obligationSvc.Settle(c.Request.Context(), id, obligationdomain.SettleRequest{
		AmountPaid: req.AmountPaid,
		Method:     req.Method,
		Reference:  req.Reference,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"obligation": obligation})
}

func (s *Server) UnsettleObligation(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		AbortWithError(c, obligationdomain.ErrInvalidObligationID)
		return
	}

	obligation, err := s.obligationSvc.Unsettle(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"obligation": obligation})
}

type writeOffRequest struct {
	Note string `json:"note"`
}

func (s *Server) WriteOffObligation(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		AbortWithError(c, obligationdomain.ErrInvalidObligationID)
		return
	}

	var req writeOffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	obligation, err := s.obligationSvc.WriteOff(c.Request.Context(), id, req.Note)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"obligation": obligation})
}

func parseOptionalDate(raw string) (*time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, false
	}
	return &t, true
}

func parseInt32(raw string) int32 {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 32)
	if err != nil || n < 0 {
		return 0
	}
	return int32(n)
}
