package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/identity"
	"github.com/aussiebroadwan/accounts/internal/accounts/store"
)

const defaultReconcileBatch = 100

// OrphanReconciler periodically retries deleting identity accounts left
// behind by registrations whose compensation failed.
type OrphanReconciler struct {
	Store    store.ProfileStore
	Provider identity.Provider
	Logger   *slog.Logger
	Interval time.Duration

	// BatchSize caps how many orphans one pass looks at.
	BatchSize int

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}

	mu      sync.Mutex
	started bool
	stopped bool
}

// NewOrphanReconciler creates a reconciler running every interval. If
// interval is 0 or negative, defaults to 15 minutes.
func NewOrphanReconciler(st store.ProfileStore, provider identity.Provider, logger *slog.Logger, interval time.Duration) *OrphanReconciler {
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	return &OrphanReconciler{
		Store:     st,
		Provider:  provider,
		Logger:    logger,
		Interval:  interval,
		BatchSize: defaultReconcileBatch,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start begins the background worker. It is non-blocking; call Stop to shut
// it down. Starting twice, or after Stop, does nothing.
func (r *OrphanReconciler) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started || r.stopped {
		return
	}
	r.started = true

	go r.run()
	r.Logger.Info("orphan reconciler started", "interval", r.Interval)
}

// Stop blocks until an in-progress pass has finished. It is safe to call
// more than once and without a prior Start.
func (r *OrphanReconciler) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	started := r.started
	r.mu.Unlock()

	close(r.stopCh)
	if !started {
		return
	}
	<-r.doneCh
	r.Logger.Info("orphan reconciler stopped")
}

func (r *OrphanReconciler) run() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	r.pass()

	for {
		select {
		case <-ticker.C:
			r.pass()
		case <-r.stopCh:
			return
		}
	}
}

func (r *OrphanReconciler) pass() {
	resolved, err := r.RunOnce(context.Background())
	if err != nil {
		r.Logger.Error("orphan reconciliation failed", "error", err)
		return
	}
	if resolved > 0 {
		r.Logger.Info("orphan reconciliation completed", "resolved", resolved)
	}
}

// RunOnce makes one pass over unresolved orphans and returns how many it
// resolved. A failure on one orphan is recorded against it and does not stop
// the pass.
func (r *OrphanReconciler) RunOnce(ctx context.Context) (int, error) {
	ctx, span := tracer.Start(ctx, "OrphanReconciler.RunOnce")
	defer span.End()

	batch := r.BatchSize
	if batch <= 0 {
		batch = defaultReconcileBatch
	}

	orphans, err := r.Store.Orphans().ListUnresolved(ctx, batch)
	if err != nil {
		return 0, err
	}

	resolved := 0
	for _, o := range orphans {
		log := r.Logger.With("orphan_id", o.ID, "identity_ref", o.IdentityRef)

		// A profile showing up means the insert landed after all and the
		// account is not an orphan.
		_, err := r.Store.Profiles().FindByIdentityRef(ctx, o.IdentityRef)
		switch {
		case err == nil:
			log.Info("orphan has a profile, resolving without delete")
		case errors.Is(err, store.ErrNotFound):
			err = r.Provider.DeleteAccount(ctx, o.IdentityRef)
			if err != nil && !errors.Is(err, identity.ErrAccountNotFound) {
				log.Error("failed to delete orphaned account", "attempts", o.Attempts+1, "error", err)
				if markErr := r.Store.Orphans().MarkAttempt(ctx, o.ID, err.Error()); markErr != nil {
					log.Error("failed to record orphan attempt", "error", markErr)
				}
				continue
			}
		default:
			log.Error("failed to check orphan profile", "error", err)
			continue
		}

		if err := r.Store.Orphans().Resolve(ctx, o.ID, time.Now().UTC()); err != nil {
			log.Error("failed to resolve orphan", "error", err)
			continue
		}
		resolved++
	}
	return resolved, nil
}
