package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/Alex1986-rgb/craftwrite-cloud-hub-sub003/internal/adapter/repo"
	domain "github.com/Alex1986-rgb/craftwrite-cloud-hub-sub003/internal/entity"
	"github.com/Alex1986-rgb/craftwrite-cloud-hub-sub003/internal/tracker"
	"github.com/Alex1986-rgb/craftwrite-cloud-hub-sub003/internal/usecase"
	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	create *usecase.CreateOrder
	search *usecase.SearchOrders
	update *usecase.UpdateStatus
	query  usecase.OrderRepo
	hub    *tracker.Hub
}

func NewOrderHandler(create *usecase.CreateOrder, search *usecase.SearchOrders, update *usecase.UpdateStatus, query usecase.OrderRepo, hub *tracker.Hub) *OrderHandler {
	return &OrderHandler{create: create, search: search, update: update, query: query, hub: hub}
}

type createOrderReq struct {
	Customer struct {
		Email string `json:"email" binding:"required,email"`
		Phone string `json:"phone"`
	} `json:"customer" binding:"required"`

	ServiceType string   `json:"serviceType" binding:"required"`
	Quantity    int64    `json:"quantity" binding:"required,gt=0"`
	Addons      []string `json:"addons"`
	Urgency     string   `json:"urgency" binding:"required"`
}

type createOrderResp struct {
	OrderID string           `json:"orderId"`
	Status  string           `json:"status"`
	Price   map[string]int64 `json:"price"`
}

// CreateOrder handler: translate to use case input
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "detail": err.Error()})
		return
	}

	idemKey := c.GetHeader("X-Idempotency-Key") // prevent duplicated requests

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	out, err := h.create.Execute(ctx, usecase.CreateOrderInput{
		CustomerEmail:  req.Customer.Email,
		CustomerPhone:  req.Customer.Phone,
		IdempotencyKey: idemKey,
		Config: domain.OrderConfiguration{
			ServiceType:        domain.ServiceType(req.ServiceType),
			QuantityMetric:     req.Quantity,
			AdditionalServices: req.Addons,
			UrgencyTier:        domain.UrgencyTier(req.Urgency),
		},
	})

	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, usecase.ErrDuplicate):
			status = http.StatusConflict
		case errors.Is(err, domain.ErrInvalidQuantity),
			errors.Is(err, domain.ErrInvalidUrgency),
			errors.Is(err, domain.ErrInvalidService):
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, createOrderResp{
		OrderID: out.OrderID,
		Status:  out.Status,
		Price:   out.Price.Rounded(),
	})
}

func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	id := c.Param("id")
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	rec, err := h.query.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store_error"})
		return
	}
	c.JSON(http.StatusOK, orderView(rec))
}

// SearchOrders routes a free-text query (email / phone / id fragment).
// "No matches" is a distinct state, never a transport error.
func (h *OrderHandler) SearchOrders(c *gin.Context) {
	q := c.Query("query")
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_query"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	recs, err := h.search.Execute(ctx, q)
	if errors.Is(err, usecase.ErrNoMatches) {
		c.JSON(http.StatusOK, gin.H{"orders": []any{}, "found": false})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store_error"})
		return
	}

	views := make([]gin.H, 0, len(recs))
	for _, rec := range recs {
		views = append(views, orderView(rec))
	}
	c.JSON(http.StatusOK, gin.H{"orders": views, "found": true})
}

// TrackOrder returns a one-shot authoritative snapshot with the stage board
// and overall progress.
func (h *OrderHandler) TrackOrder(c *gin.Context) {
	id := c.Param("id")
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	snap, err := h.hub.Snapshot(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store_error"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// WatchOrder streams snapshots over SSE until the client disconnects.
// Simulated and polled updates are interleaved; each event carries the
// authoritative flag so the client can style them apart.
func (h *OrderHandler) WatchOrder(c *gin.Context) {
	id := c.Param("id")

	snaps, stop := h.hub.Watch(c.Request.Context(), id)
	defer stop()

	c.Stream(func(w io.Writer) bool {
		snap, ok := <-snaps
		if !ok {
			return false
		}
		if snap.Err != nil {
			c.SSEvent("error", gin.H{"retryable": true})
			return true
		}
		c.SSEvent("snapshot", snap)
		return true
	})
}

type updateStatusReq struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

// UpdateStatus is the administrative transition endpoint.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	err := h.update.Execute(ctx, usecase.UpdateStatusInput{
		OrderID: c.Param("id"),
		Status:  domain.Status(req.Status),
		Note:    req.Note,
	})
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"ok": true})
	case errors.Is(err, usecase.ErrOrderNotFound), errors.Is(err, repo.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	case errors.Is(err, usecase.ErrTerminalOrder), errors.Is(err, usecase.ErrBadTransition):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, usecase.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "conflict"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store_error"})
	}
}

func orderView(rec *usecase.OrderRecord) gin.H {
	// Price and addons are stored as JSON snapshots; tolerate missing or
	// malformed blobs on old rows.
	var price domain.PriceBreakdown
	_ = json.Unmarshal([]byte(rec.PriceJSON), &price)
	var addons []string
	_ = json.Unmarshal([]byte(rec.AddonsJSON), &addons)

	return gin.H{
		"id":             rec.ID,
		"customer_email": rec.CustomerEmail,
		"customer_phone": rec.CustomerPhone,
		"service_type":   rec.ServiceType,
		"quantity":       rec.Quantity,
		"addons":         addons,
		"urgency":        rec.Urgency,
		"status":         rec.Status,
		"price":          price.Rounded(),
		"total_cents":    rec.TotalCents,
		"currency":       rec.Currency,
		"notes":          rec.Notes,
		"created_at":     rec.CreatedAt,
		"updated_at":     rec.UpdatedAt,
	}
}
