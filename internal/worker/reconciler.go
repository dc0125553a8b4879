package worker

import (
	"context"
	"sync"
	"time"

	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/service"
)

// Reconciler periodically backfills missing adoption requests and settles
// checkout sagas that stopped making progress.
type Reconciler struct {
	reconciliation service.ReconciliationService
	checkout       service.CheckoutService
	log            logger.Logger
	interval       time.Duration
	stallAfter     time.Duration

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func NewReconciler(
	reconciliation service.ReconciliationService,
	checkout service.CheckoutService,
	log logger.Logger,
	interval, stallAfter time.Duration,
) *Reconciler {
	return &Reconciler{
		reconciliation: reconciliation,
		checkout:       checkout,
		log:            log,
		interval:       interval,
		stallAfter:     stallAfter,
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}
}

// Start runs the loop until Stop is called. A zero interval disables it.
func (r *Reconciler) Start() {
	if r.interval <= 0 {
		r.log.Info("Background reconciler disabled")
		close(r.done)
		return
	}
	r.log.Infof("Background reconciler started, interval %s", r.interval)

	go func() {
		defer close(r.done)
		t := time.NewTicker(r.interval)
		defer t.Stop()
		for {
			select {
			case <-r.stop:
				return
			case <-t.C:
				r.RunOnce(context.Background())
			}
		}
	}()
}

// RunOnce performs a single pass. Failures are logged; the next tick retries.
func (r *Reconciler) RunOnce(ctx context.Context) {
	if r.interval > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.interval)
		defer cancel()
	}

	report, err := r.reconciliation.Reconcile(ctx, "all", service.TriggerScheduled)
	if err != nil {
		r.log.Errorf("Scheduled reconciliation failed: %v", err)
	} else if report.RequestsCreated > 0 {
		r.log.Infof("Scheduled reconciliation backfilled %d requests from %d orders", report.RequestsCreated, report.OrdersScanned)
	}

	recovered, err := r.checkout.RecoverStalled(ctx, r.stallAfter)
	if err != nil {
		r.log.Errorf("Stalled checkout recovery failed: %v", err)
		return
	}
	if recovered.Resumed+recovered.Compensated > 0 {
		r.log.Infof("Stalled checkouts: %d resumed, %d compensated", recovered.Resumed, recovered.Compensated)
	}
}

// Stop ends the loop and waits for an in-flight pass to finish or ctx to
// expire.
func (r *Reconciler) Stop(ctx context.Context) error {
	r.once.Do(func() { close(r.stop) })
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
