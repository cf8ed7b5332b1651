package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	domain "github.com/Alex1986-rgb/craftwrite-cloud-hub-sub003/internal/entity"
	"github.com/Alex1986-rgb/craftwrite-cloud-hub-sub003/internal/logging"
	"github.com/Alex1986-rgb/craftwrite-cloud-hub-sub003/internal/pricing"
	"github.com/google/uuid"
)

var ErrDuplicate = errors.New("duplicate idempotency key")

const defaultCurrency = "USD"

type CreateOrderInput struct {
	CustomerEmail  string
	CustomerPhone  string
	IdempotencyKey string
	Config         domain.OrderConfiguration
}

type CreateOrderOutput struct {
	OrderID string
	Status  string
	Price   domain.PriceBreakdown
}

type CreateOrder struct {
	catalog   pricing.Config
	repo      OrderRepo
	idem      IdempotencyStore
	notify    NotificationQueue
	analytics AnalyticsSink
}

func NewCreateOrder(catalog pricing.Config, repo OrderRepo, idem IdempotencyStore, notify NotificationQueue, analytics AnalyticsSink) *CreateOrder {
	return &CreateOrder{catalog: catalog, repo: repo, idem: idem, notify: notify, analytics: analytics}
}

func (uc *CreateOrder) Execute(ctx context.Context, in CreateOrderInput) (CreateOrderOutput, error) {
	if err := in.Config.Validate(); err != nil {
		return CreateOrderOutput{}, err
	}

	// Fast path: idempotency recall
	if id, ok, _ := uc.idem.Recall(ctx, in.CustomerEmail, in.IdempotencyKey); ok {
		return CreateOrderOutput{OrderID: id, Status: string(domain.StatusPending)}, nil
	}
	ok, err := uc.idem.TryLock(ctx, in.CustomerEmail, in.IdempotencyKey)
	if err != nil {
		return CreateOrderOutput{}, err
	}
	if !ok {
		return CreateOrderOutput{}, ErrDuplicate
	}

	price := pricing.Compute(uc.catalog, in.Config)

	priceJSON, err := json.Marshal(price)
	if err != nil {
		return CreateOrderOutput{}, fmt.Errorf("marshal price: %w", err)
	}
	addonsJSON, err := json.Marshal(in.Config.AdditionalServices)
	if err != nil {
		return CreateOrderOutput{}, fmt.Errorf("marshal addons: %w", err)
	}

	orderID := uuid.NewString()
	rec := &OrderRecord{
		ID:            orderID,
		CustomerEmail: in.CustomerEmail,
		CustomerPhone: in.CustomerPhone,
		ServiceType:   string(in.Config.ServiceType),
		Quantity:      in.Config.QuantityMetric,
		AddonsJSON:    string(addonsJSON),
		Urgency:       string(in.Config.UrgencyTier),
		Status:        string(domain.StatusPending),
		PriceJSON:     string(priceJSON),
		TotalCents:    price.TotalCents,
		Currency:      defaultCurrency,
	}
	if err := uc.repo.Create(ctx, rec); err != nil {
		return CreateOrderOutput{}, err
	}

	// Notification and analytics are best-effort; the order is already durable.
	if err := uc.notify.PublishCreated(ctx, CreatedMsg{
		OrderID:       orderID,
		CustomerEmail: in.CustomerEmail,
		ServiceType:   rec.ServiceType,
		TotalCents:    price.TotalCents,
		Currency:      rec.Currency,
	}); err != nil {
		logging.FromCtx(ctx).Warn("publish order.created failed", "order_id", orderID, "err", err)
	}
	uc.analytics.Record(ctx, "order_created", map[string]any{
		"order_id":     orderID,
		"service_type": rec.ServiceType,
		"total_cents":  price.TotalCents,
	})

	_ = uc.idem.Remember(ctx, in.CustomerEmail, in.IdempotencyKey, orderID)
	return CreateOrderOutput{OrderID: orderID, Status: rec.Status, Price: price}, nil
}
