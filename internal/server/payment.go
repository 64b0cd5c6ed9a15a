package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/paycalhq/paycal/internal/orgcontext"
	paymentdomain "github.com/paycalhq/paycal/internal/payment/domain"
	scheduledomain "github.com/paycalhq/paycal/internal/schedule/domain"
)

// maxWebhookBody bounds provider webhook payloads.
const maxWebhookBody = 1 << 20

func (s *Server) IngestWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	provider := strings.ToLower(strings.TrimSpace(c.Param("provider")))
	result, err := s.paymentSvc.IngestWebhook(c.Request.Context(), provider, payload, c.Request.Header)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) ListPayments(c *gin.Context) {
	window := scheduledomain.DefaultWindow(s.clock.Now())
	from, to := window.Start, window.End

	if v, ok := parseOptionalDate(c.Query("from")); ok {
		from = *v
	} else if c.Query("from") != "" {
		AbortWithError(c, newValidationError("from", "invalid_date", "from must be YYYY-MM-DD"))
		return
	}
	if v, ok := parseOptionalDate(c.Query("to")); ok {
		to = *v
	} else if c.Query("to") != "" {
		AbortWithError(c, newValidationError("to", "invalid_date", "to must be YYYY-MM-DD"))
		return
	}

	payments, err := s.paymentSvc.List(c.Request.Context(), paymentdomain.ListRequest{
		OrgID: orgcontext.OrgID(c.Request.Context()),
		From:  from,
		To:    to,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}
