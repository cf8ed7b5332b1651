package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Alex1986-rgb/craftwrite-cloud-hub-sub003/internal/logging"
	"github.com/Alex1986-rgb/craftwrite-cloud-hub-sub003/internal/usecase"
)

// Notifier is the port to the outbound email/chat gateway.
type Notifier interface {
	NotifyOrderCreated(ctx context.Context, msg usecase.CreatedMsg) error
	NotifyStatusChanged(ctx context.Context, msg usecase.StatusChangedMsg) error
}

// NotifyHandler drains the notification queues and calls the gateway.
// Gateway failures are logged and dropped: notifications may fail silently,
// they never block the order flow or poison the queue.
type NotifyHandler struct {
	N Notifier
}

func NewNotifyHandler(n Notifier) *NotifyHandler {
	return &NotifyHandler{N: n}
}

// HandleCreated is used with queue.JSONHandler[usecase.CreatedMsg].
func (h *NotifyHandler) HandleCreated(ctx context.Context, msg usecase.CreatedMsg) error {
	if err := h.N.NotifyOrderCreated(ctx, msg); err != nil {
		logging.FromCtx(ctx).Warn("order.created notification dropped", "order_id", msg.OrderID, "err", err)
	}
	return nil
}

// HandleStatusChanged is used with queue.JSONHandler[usecase.StatusChangedMsg].
func (h *NotifyHandler) HandleStatusChanged(ctx context.Context, msg usecase.StatusChangedMsg) error {
	if err := h.N.NotifyStatusChanged(ctx, msg); err != nil {
		logging.FromCtx(ctx).Warn("status notification dropped", "order_id", msg.OrderID, "err", err)
	}
	return nil
}

// WebhookNotifier posts notification payloads to the messaging gateway
// (email/telegram bridge) as JSON.
type WebhookNotifier struct {
	URL    string
	Client *http.Client
}

func NewWebhookNotifier(url string, client *http.Client) *WebhookNotifier {
	if client == nil {
		client = http.DefaultClient
	}
	return &WebhookNotifier{URL: url, Client: client}
}

func (n *WebhookNotifier) NotifyOrderCreated(ctx context.Context, msg usecase.CreatedMsg) error {
	return n.post(ctx, "order_created", msg)
}

func (n *WebhookNotifier) NotifyStatusChanged(ctx context.Context, msg usecase.StatusChangedMsg) error {
	return n.post(ctx, "status_changed", msg)
}

func (n *WebhookNotifier) post(ctx context.Context, kind string, payload any) error {
	body, err := json.Marshal(map[string]any{"kind": kind, "payload": payload})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("notifier webhook: status %d", resp.StatusCode)
	}
	return nil
}

var _ Notifier = (*WebhookNotifier)(nil)
