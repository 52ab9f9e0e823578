package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sheikh-saqib/idea-funding-ledger/internal/logger"
)

func NewRouter(h *Handlers, log *logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))

	r.GET("/health", h.Health)

	ideas := r.Group("/ideas")
	ideas.POST("", h.SubmitIdea)
	ideas.GET("", h.ListIdeas)
	ideas.GET("/:id", h.GetIdea)
	ideas.GET("/:id/contributions", h.Contributions)
	ideas.POST("/:id/fund", h.FundIdea)
	ideas.POST("/:id/withdraw", h.WithdrawFunds)
	ideas.GET("/:id/payout", h.GetPayout)
	ideas.POST("/:id/payout/retry", h.RetryPayout)

	r.GET("/accounts/:account/balance", h.AccountBalance)
	return r
}

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}
