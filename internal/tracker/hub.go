package tracker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	domain "github.com/Alex1986-rgb/craftwrite-cloud-hub-sub003/internal/entity"
	"github.com/Alex1986-rgb/craftwrite-cloud-hub-sub003/internal/usecase"
)

// OrderReader is the store read port the hub polls against.
type OrderReader interface {
	GetByID(ctx context.Context, id string) (*usecase.OrderRecord, error)
}

// Snapshot is one rendering of an order's fulfillment state. Authoritative
// snapshots come from the store or the pipeline; the rest are local
// simulation, shown only until real data arrives. Err marks a retryable poll
// failure; the stage board in such a snapshot is the last known one.
type Snapshot struct {
	OrderID       string        `json:"orderId"`
	Status        domain.Status `json:"status"`
	Stages        []Stage       `json:"stages"`
	Progress      int           `json:"progress"`
	Authoritative bool          `json:"authoritative"`
	Err           error         `json:"-"`
}

type Options struct {
	PollInterval     time.Duration
	SimulateInterval time.Duration

	// Cache, when set, warm-starts a watcher whose store reads fail before
	// the first successful sync.
	Cache usecase.StatusCache
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = 30 * time.Second
	}
	if o.SimulateInterval <= 0 {
		o.SimulateInterval = 45 * time.Second
	}
	return o
}

// Hub merges three state sources into one snapshot stream per watched order:
// authoritative pushes (ApplyAuthoritative, fed by the Kafka consumer),
// fallback polling with stale-response discard, and a local simulation tick
// that optimistically advances the in-progress stage. Authoritative data
// always wins and discards any simulated progress for that order.
type Hub struct {
	reader OrderReader
	opts   Options
	log    *slog.Logger

	mu       sync.Mutex
	nextID   uint64
	watchers map[string]map[uint64]*watcher
}

type watcher struct {
	ch   chan Snapshot
	auth chan authEvent
}

type authEvent struct {
	service domain.ServiceType
	status  domain.Status
}

func NewHub(reader OrderReader, opts Options, log *slog.Logger) *Hub {
	return &Hub{
		reader:   reader,
		opts:     opts.withDefaults(),
		log:      log,
		watchers: make(map[string]map[uint64]*watcher),
	}
}

// ApplyAuthoritative pushes a confirmed status to every watcher of orderID.
// The service type rides along so stage labels are right even before the
// watcher's first poll completes; empty means unknown, keep what we have.
// Events for orders nobody is watching are ignored.
func (h *Hub) ApplyAuthoritative(orderID string, service domain.ServiceType, status domain.Status) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, w := range h.watchers[orderID] {
		select {
		case w.auth <- authEvent{service: service, status: status}:
		default:
			// watcher is draining; the next poll reconciles
		}
	}
}

// Snapshot reads the store once and builds an authoritative snapshot.
func (h *Hub) Snapshot(ctx context.Context, orderID string) (Snapshot, error) {
	rec, err := h.reader.GetByID(ctx, orderID)
	if err != nil {
		return Snapshot{}, err
	}
	return h.build(orderID, domain.ServiceType(rec.ServiceType), domain.Status(rec.Status), true, nil), nil
}

// Watch subscribes to one order. The returned stop function must be called
// when the consumer goes away; pending polls for a stopped watcher are
// abandoned and their late results dropped.
func (h *Hub) Watch(ctx context.Context, orderID string) (<-chan Snapshot, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	w := &watcher{
		ch:   make(chan Snapshot, 8),
		auth: make(chan authEvent, 8),
	}

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	if h.watchers[orderID] == nil {
		h.watchers[orderID] = make(map[uint64]*watcher)
	}
	h.watchers[orderID][id] = w
	h.mu.Unlock()

	go h.run(ctx, orderID, id, w)
	return w.ch, cancel
}

type pollResult struct {
	seq     uint64
	status  domain.Status
	service domain.ServiceType
	err     error
}

func (h *Hub) run(ctx context.Context, orderID string, id uint64, w *watcher) {
	defer func() {
		h.mu.Lock()
		delete(h.watchers[orderID], id)
		if len(h.watchers[orderID]) == 0 {
			delete(h.watchers, orderID)
		}
		h.mu.Unlock()
		close(w.ch)
	}()

	var (
		shown   = domain.StatusPending // what the watcher last saw
		svc     = domain.ServiceOther
		synced  bool
		results = make(chan pollResult, 4)
		issued  uint64
	)

	poll := func() {
		issued++
		seq := issued
		go func() {
			rec, err := h.reader.GetByID(ctx, orderID)
			r := pollResult{seq: seq, err: err}
			if err == nil {
				r.status = domain.Status(rec.Status)
				r.service = domain.ServiceType(rec.ServiceType)
			}
			select {
			case results <- r:
			case <-ctx.Done():
			}
		}()
	}

	emit := func(s Snapshot) {
		select {
		case w.ch <- s:
		default:
			if h.log != nil {
				h.log.Debug("tracker: watcher channel full, dropping snapshot", "order_id", orderID)
			}
		}
	}

	poll()

	pollT := time.NewTicker(h.opts.PollInterval)
	simT := time.NewTicker(h.opts.SimulateInterval)
	defer pollT.Stop()
	defer simT.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case ev := <-w.auth:
			// Authoritative beats whatever the simulation showed.
			shown = ev.status
			if ev.service != "" {
				svc = ev.service
			}
			emit(h.build(orderID, svc, shown, true, nil))

		case r := <-results:
			if r.seq != issued {
				continue // stale response from an overlapping poll
			}
			if r.err != nil {
				// Retryable; local state is preserved. Before the first
				// successful sync the status cache is a better guess than
				// PENDING.
				if !synced && h.opts.Cache != nil {
					if v, ok, cerr := h.opts.Cache.GetStatus(ctx, orderID); cerr == nil && ok {
						shown = domain.Status(v)
					}
				}
				emit(h.build(orderID, svc, shown, false, r.err))
				continue
			}
			synced = true
			shown, svc = r.status, r.service
			emit(h.build(orderID, svc, shown, true, nil))

		case <-pollT.C:
			poll()

		case <-simT.C:
			// Cosmetic advancement between confirmations. Never walks into a
			// terminal state and never overrides one.
			if domain.IsTerminal(shown) {
				continue
			}
			next, ok := domain.Next(shown)
			if !ok || next == domain.StatusCompleted {
				continue
			}
			shown = next
			emit(h.build(orderID, svc, shown, false, nil))
		}
	}
}

func (h *Hub) build(orderID string, svc domain.ServiceType, st domain.Status, authoritative bool, err error) Snapshot {
	stages := StagesFor(svc, st)
	return Snapshot{
		OrderID:       orderID,
		Status:        st,
		Stages:        stages,
		Progress:      Progress(stages),
		Authoritative: authoritative,
		Err:           err,
	}
}
