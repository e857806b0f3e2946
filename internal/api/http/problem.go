package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/olyamironova/customer-trade-service/internal/api/dto"
	"github.com/olyamironova/customer-trade-service/internal/domain"
	"github.com/olyamironova/customer-trade-service/internal/middleware"
)

const (
	problemContentType = "application/problem+json"

	kindInvalidRequest = "invalid-request"
	kindNoRoute        = "route-not-found"
	kindRateLimited    = "rate-limited"
	kindInternal       = "internal-error"
)

type problemDef struct {
	status int
	title  string
}

// problems maps an error kind to its HTTP rendering. Kinds missing here are
// rendered as internal errors.
var problems = map[string]problemDef{
	string(domain.KindCustomerNotFound):    {http.StatusNotFound, "Customer Not Found"},
	string(domain.KindInsufficientBalance): {http.StatusBadRequest, "Insufficient Balance"},
	string(domain.KindInsufficientShares):  {http.StatusBadRequest, "Insufficient Shares"},
	string(domain.KindInvalidQuantity):     {http.StatusBadRequest, "Invalid Quantity"},
	string(domain.KindInvalidPrice):        {http.StatusBadRequest, "Invalid Price"},
	string(domain.KindUnknownTicker):       {http.StatusBadRequest, "Unknown Ticker"},
	string(domain.KindUnknownAction):       {http.StatusBadRequest, "Unknown Action"},
	kindInvalidRequest:                     {http.StatusBadRequest, "Invalid Request"},
	kindNoRoute:                            {http.StatusNotFound, "Not Found"},
	kindRateLimited:                        {http.StatusTooManyRequests, "Too Many Requests"},
	kindInternal:                           {http.StatusInternalServerError, "Internal Server Error"},
}

func (s *HTTPServer) problem(c *gin.Context, kind, detail string) {
	def, ok := problems[kind]
	if !ok {
		kind, def = kindInternal, problems[kindInternal]
	}
	c.Header("Content-Type", problemContentType)
	c.AbortWithStatusJSON(def.status, dto.Problem{
		Type:     s.typeBase + kind,
		Title:    def.title,
		Status:   def.status,
		Detail:   detail,
		Instance: c.Request.URL.Path,
	})
}

// fail renders err. Domain errors keep their detail; anything else is logged
// and hidden behind a generic 500.
func (s *HTTPServer) fail(c *gin.Context, err error) {
	var de *domain.Error
	if errors.As(err, &de) {
		s.problem(c, string(de.Kind), de.Detail)
		return
	}
	s.log.WithError(err).
		WithField("request_id", middleware.GetRequestID(c)).
		WithField("path", c.Request.URL.Path).
		Error("request failed")
	s.problem(c, kindInternal, "The request could not be processed")
}
