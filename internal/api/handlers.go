package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sheikh-saqib/idea-funding-ledger/internal/ledger"
	"github.com/sheikh-saqib/idea-funding-ledger/internal/logger"
	"github.com/sheikh-saqib/idea-funding-ledger/internal/models"
	"github.com/sheikh-saqib/idea-funding-ledger/internal/payout"
)

// CallerHeader carries the caller identity established by the gateway.
const CallerHeader = "X-Caller-ID"

type Handlers struct {
	ledger *ledger.Ledger
	book   *payout.Book
	log    *logger.Logger
}

func NewHandlers(l *ledger.Ledger, book *payout.Book, log *logger.Logger) *Handlers {
	return &Handlers{ledger: l, book: book, log: log.With("component", "api")}
}

type submitRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	GoalAmount  int64  `json:"goal_amount"`
}

type fundRequest struct {
	Amount int64 `json:"amount"`
}

func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handlers) SubmitIdea(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	id, err := h.ledger.SubmitIdea(c.Request.Context(), caller, req.Title, req.Description, req.GoalAmount)
	if err != nil && id == 0 {
		h.writeError(c, err)
		return
	}
	h.logCommitted(err, "submit", id)
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *Handlers) ListIdeas(c *gin.Context) {
	ideas, err := h.ledger.ListIdeas(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ideas)
}

func (h *Handlers) GetIdea(c *gin.Context) {
	id, ok := ideaID(c)
	if !ok {
		return
	}
	idea, err := h.ledger.GetIdea(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, idea)
}

func (h *Handlers) Contributions(c *gin.Context) {
	id, ok := ideaID(c)
	if !ok {
		return
	}
	entries, err := h.ledger.Contributions(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handlers) FundIdea(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := ideaID(c)
	if !ok {
		return
	}
	var req fundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	idea, err := h.ledger.FundIdea(c.Request.Context(), id, caller, req.Amount)
	if err != nil && idea.ID == 0 {
		h.writeError(c, err)
		return
	}
	h.logCommitted(err, "fund", id)
	c.JSON(http.StatusOK, idea)
}

func (h *Handlers) WithdrawFunds(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := ideaID(c)
	if !ok {
		return
	}

	p, err := h.ledger.WithdrawFunds(c.Request.Context(), id, caller)
	h.writePayout(c, p, err, "withdraw", id)
}

func (h *Handlers) RetryPayout(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := ideaID(c)
	if !ok {
		return
	}

	p, err := h.ledger.RetryPayout(c.Request.Context(), id, caller)
	h.writePayout(c, p, err, "retry payout", id)
}

func (h *Handlers) GetPayout(c *gin.Context) {
	id, ok := ideaID(c)
	if !ok {
		return
	}
	p, err := h.ledger.GetPayout(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handlers) AccountBalance(c *gin.Context) {
	account := c.Param("account")
	c.JSON(http.StatusOK, gin.H{
		"account_id": account,
		"balance":    h.book.Balance(account),
	})
}

// writePayout answers withdrawal style calls. A payout that exists but could
// not be transferred is reported as accepted, not as a failure.
func (h *Handlers) writePayout(c *gin.Context, p models.Payout, err error, op string, id int64) {
	switch {
	case p.ID == "" && err != nil:
		h.writeError(c, err)
	case errors.Is(err, ledger.ErrPayoutPending):
		c.JSON(http.StatusAccepted, p)
	default:
		h.logCommitted(err, op, id)
		c.JSON(http.StatusOK, p)
	}
}

// logCommitted reports errors that happened after the ledger committed.
func (h *Handlers) logCommitted(err error, op string, id int64) {
	if err != nil {
		h.log.Warn("operation committed with errors", "op", op, "idea_id", id, "error", err)
	}
}

func (h *Handlers) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrPayoutNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrAlreadyFunded),
		errors.Is(err, models.ErrNotFunded),
		errors.Is(err, models.ErrAlreadyWithdrawn):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func callerID(c *gin.Context) (string, bool) {
	caller := c.GetHeader(CallerHeader)
	if caller == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": CallerHeader + " header is required"})
		return "", false
	}
	return caller, true
}

func ideaID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "idea id must be an integer"})
		return 0, false
	}
	return id, true
}
