package reconciler

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"catalogsync/internal/apperror"
	"catalogsync/internal/logger"
	"catalogsync/internal/metrics"
	"catalogsync/internal/models"
)

const (
	DefaultWindow       = 2 * time.Second
	DefaultShards       = 32
	DefaultApplyTimeout = 30 * time.Second
)

// Resolver maps an inventory item to its parent product.
type Resolver interface {
	ResolveInventoryItem(ctx context.Context, inventoryItemID string) (models.ParentProductInfo, error)
}

// StatusUpdater publishes or hides a product.
type StatusUpdater interface {
	SetProductStatus(ctx context.Context, productID string, status models.ProductStatus) error
}

// Recorder persists applied decisions.
type Recorder interface {
	Record(ctx context.Context, rec *models.Reconciliation) error
}

type Options struct {
	Window       time.Duration
	Shards       int
	ApplyTimeout time.Duration
	Recorder     Recorder
	Metrics      *metrics.Metrics
}

// Reconciler debounces inventory changes per product and then sets the
// product status from the last snapshot seen. At most one status update per
// product runs at a time.
type Reconciler struct {
	resolver Resolver
	updater  StatusUpdater
	recorder Recorder
	metrics  *metrics.Metrics
	logger   *logger.Logger

	window       time.Duration
	applyTimeout time.Duration

	version atomic.Uint64
	shards  []*shard

	// guards stopped against ingest goroutines being added
	mu      sync.Mutex
	stopped atomic.Bool
	wg      sync.WaitGroup

	baseCtx context.Context
	cancel  context.CancelFunc
}

type shard struct {
	mu       sync.Mutex
	pending  map[string]*entry
	inFlight map[string]struct{}
}

type entry struct {
	info    models.ParentProductInfo
	version uint64
	timer   *time.Timer
}

func New(resolver Resolver, updater StatusUpdater, logger *logger.Logger, opts Options) *Reconciler {
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.Shards <= 0 {
		opts.Shards = DefaultShards
	}
	if opts.ApplyTimeout <= 0 {
		opts.ApplyTimeout = DefaultApplyTimeout
	}

	shards := make([]*shard, opts.Shards)
	for i := range shards {
		shards[i] = &shard{
			pending:  make(map[string]*entry),
			inFlight: make(map[string]struct{}),
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Reconciler{
		resolver:     resolver,
		updater:      updater,
		recorder:     opts.Recorder,
		metrics:      opts.Metrics,
		logger:       logger.WithField("component", "reconciler"),
		window:       opts.Window,
		applyTimeout: opts.ApplyTimeout,
		shards:       shards,
		baseCtx:      ctx,
		cancel:       cancel,
	}
}

// NextVersion stamps an event at receipt. Later stamps are newer.
func (r *Reconciler) NextVersion() uint64 {
	return r.version.Add(1)
}

// Ingest resolves an event and schedules its product. Events that do not
// resolve are discarded and the resolution error is returned.
func (r *Reconciler) Ingest(ctx context.Context, event models.InventoryEvent) error {
	version := r.NextVersion()

	info, err := r.resolver.ResolveInventoryItem(ctx, string(event.InventoryItemID))
	if err != nil || !info.Resolved() {
		r.metrics.EventUnresolved()
		if err == nil {
			r.logger.Warn("Discarding inventory event for item %s: no matching product", event.InventoryItemID)
			return apperror.ErrResolutionMiss
		}
		r.logger.Warn("Discarding inventory event for item %s: %v", event.InventoryItemID, err)
		return err
	}

	r.logger.Info("Product '%s' (%s) has total inventory: %d", info.DisplayName, info.ProductID, info.TotalInventory)
	r.Submit(info, version)
	return nil
}

// IngestAsync runs Ingest off the caller's path. It returns false once the
// reconciler is stopping.
func (r *Reconciler) IngestAsync(event models.InventoryEvent) bool {
	r.mu.Lock()
	if r.stopped.Load() {
		r.mu.Unlock()
		return false
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(r.baseCtx, r.applyTimeout)
		defer cancel()
		_ = r.Ingest(ctx, event)
	}()
	return true
}

// Submit replaces the pending snapshot of a product and restarts its
// debounce timer. A snapshot older than the pending one is dropped.
func (r *Reconciler) Submit(info models.ParentProductInfo, version uint64) bool {
	id := info.ProductID
	s := r.shardFor(id)

	s.mu.Lock()
	defer s.mu.Unlock()

	if r.stopped.Load() {
		return false
	}

	if existing, ok := s.pending[id]; ok {
		if existing.version > version {
			r.metrics.StaleDropped()
			r.logger.Debug("Dropping stale snapshot v%d for %s (pending v%d)", version, id, existing.version)
			return false
		}
		existing.timer.Stop()
	} else {
		r.metrics.PendingChanged(1)
	}

	e := &entry{info: info, version: version}
	e.timer = time.AfterFunc(r.window, func() { r.fire(id, version) })
	s.pending[id] = e
	return true
}

func (r *Reconciler) fire(id string, version uint64) {
	s := r.shardFor(id)

	s.mu.Lock()
	e, ok := s.pending[id]
	if !ok || e.version != version || r.stopped.Load() {
		s.mu.Unlock()
		return
	}
	if _, busy := s.inFlight[id]; busy {
		e.timer = time.AfterFunc(r.window, func() { r.fire(id, version) })
		s.mu.Unlock()
		return
	}
	delete(s.pending, id)
	s.inFlight[id] = struct{}{}
	r.wg.Add(1)
	s.mu.Unlock()

	r.metrics.PendingChanged(-1)

	defer func() {
		s.mu.Lock()
		delete(s.inFlight, id)
		s.mu.Unlock()
		r.wg.Done()
	}()

	r.apply(e)
}

func (r *Reconciler) apply(e *entry) {
	status := models.StatusForInventory(e.info.TotalInventory)

	ctx, cancel := context.WithTimeout(r.baseCtx, r.applyTimeout)
	defer cancel()

	start := time.Now()
	err := r.updater.SetProductStatus(ctx, e.info.ProductID, status)
	r.metrics.ReconciliationApplied(string(status), err, time.Since(start))

	if err != nil {
		r.logger.Error("Failed to set product '%s' to %s: %v", e.info.DisplayName, status, err)
	} else {
		r.logger.Info("Product '%s' set to %s (total inventory %d).", e.info.DisplayName, status, e.info.TotalInventory)
	}

	if r.recorder == nil {
		return
	}
	rec := &models.Reconciliation{
		ProductID:      e.info.ProductID,
		DisplayName:    e.info.DisplayName,
		TotalInventory: e.info.TotalInventory,
		Status:         status,
		Version:        e.version,
		AppliedAt:      start.UTC(),
	}
	if err != nil {
		msg := err.Error()
		rec.Error = &msg
	}
	if err := r.recorder.Record(ctx, rec); err != nil {
		r.logger.Warn("Failed to journal reconciliation for %s: %v", e.info.ProductID, err)
	}
}

// Pending reports how many products are waiting for their window.
func (r *Reconciler) Pending() int {
	n := 0
	for _, s := range r.shards {
		s.mu.Lock()
		n += len(s.pending)
		s.mu.Unlock()
	}
	return n
}

// Stop drops pending snapshots and waits for in-flight work. When ctx ends
// first, in-flight requests are cancelled.
func (r *Reconciler) Stop(ctx context.Context) error {
	r.mu.Lock()
	r.stopped.Store(true)
	r.mu.Unlock()

	dropped := 0
	for _, s := range r.shards {
		s.mu.Lock()
		for id, e := range s.pending {
			e.timer.Stop()
			delete(s.pending, id)
			dropped++
		}
		s.mu.Unlock()
	}
	if dropped > 0 {
		r.metrics.PendingChanged(-float64(dropped))
		r.logger.Warn("Dropped %d pending reconciliations on shutdown", dropped)
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.cancel()
		return nil
	case <-ctx.Done():
		r.cancel()
		<-done
		return ctx.Err()
	}
}

func (r *Reconciler) shardFor(productID string) *shard {
	h := fnv.New32a()
	h.Write([]byte(productID))
	return r.shards[h.Sum32()%uint32(len(r.shards))]
}
