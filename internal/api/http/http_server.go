package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/olyamironova/customer-trade-service/internal/api/dto"
	"github.com/olyamironova/customer-trade-service/internal/core"
	"github.com/olyamironova/customer-trade-service/internal/middleware"
)

type Options struct {
	Logger logrus.FieldLogger
	// ProblemTypeBase prefixes the kind in the problem "type" member.
	ProblemTypeBase string
	// RateLimit is the minimum spacing between two requests of one client.
	RateLimit time.Duration
}

type HTTPServer struct {
	Eng      *core.Engine
	log      logrus.FieldLogger
	typeBase string
	router   *gin.Engine
}

func NewHTTPServer(eng *core.Engine, opts Options) *HTTPServer {
	s := &HTTPServer{
		Eng:      eng,
		log:      opts.Logger,
		typeBase: opts.ProblemTypeBase,
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(s.log))

	rl := middleware.NewRateLimiter(opts.RateLimit)
	rl.Reject = func(c *gin.Context) {
		s.problem(c, kindRateLimited, "Rate limit exceeded, retry later")
	}
	r.Use(rl.Middleware())

	r.GET("/healthz", s.health)
	r.GET("/customers/:customerId", s.getCustomerInformation)
	r.POST("/customers/:customerId/trade", s.trade)
	r.NoRoute(func(c *gin.Context) {
		s.problem(c, kindNoRoute, fmt.Sprintf("No route for %s %s", c.Request.Method, c.Request.URL.Path))
	})

	s.router = r
	return s
}

func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

// Server returns an http.Server for addr; the caller owns its lifecycle.
func (s *HTTPServer) Server(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (s *HTTPServer) health(c *gin.Context) {
	c.JSON(http.StatusOK, dto.Health{Status: "ok"})
}

func (s *HTTPServer) getCustomerInformation(c *gin.Context) {
	id, ok := s.customerID(c)
	if !ok {
		return
	}
	info, err := s.Eng.GetCustomerInformation(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromCustomerInformation(info))
}

func (s *HTTPServer) trade(c *gin.Context) {
	id, ok := s.customerID(c)
	if !ok {
		return
	}
	var req dto.TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.problem(c, kindInvalidRequest, fmt.Sprintf("Malformed trade request: %v", err))
		return
	}
	res, err := s.Eng.Trade(c.Request.Context(), id, req.ToDomain())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromTradeResult(res))
}

func (s *HTTPServer) customerID(c *gin.Context) (int64, bool) {
	raw := c.Param("customerId")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.problem(c, kindInvalidRequest, fmt.Sprintf("Customer id %q is not a number", raw))
		return 0, false
	}
	return id, true
}
