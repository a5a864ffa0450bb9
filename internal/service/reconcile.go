package service

import (
	"context"
	"log"

	"wifiutils/internal/domain"
)

// ReconcileRepository is the part of the journal the reconciler writes to
type ReconcileRepository interface {
	RecordTransition(ctx context.Context, t *domain.Transition) error
	UpsertNeighbors(ctx context.Context, neighbors []domain.Neighbor) error
	SaveReport(ctx context.Context, report *domain.AdapterReport) error
}

// ReconcileService applies adapter observations: transitions go through the
// notifier and, when delivered, into the journal; neighbours are upserted.
type ReconcileService struct {
	repo     ReconcileRepository
	notifier *Notifier
	eventBus *EventBus
}

// NewReconcileService creates a new reconcile service. repo may be nil to
// run without a journal.
func NewReconcileService(repo ReconcileRepository, notifier *Notifier, eventBus *EventBus) *ReconcileService {
	return &ReconcileService{
		repo:     repo,
		notifier: notifier,
		eventBus: eventBus,
	}
}

// Reconcile handles one observation from the named adapter.
// Journal failures are logged and do not stop delivery.
func (r *ReconcileService) Reconcile(ctx context.Context, source string, obs *domain.Observation) error {
	if obs.IsEmpty() {
		return nil
	}

	delivered := 0
	for _, t := range obs.Transitions {
		if t.Source == "" {
			t.Source = source
		}
		handled, ok := r.notifier.Handle(ctx, t)
		if !ok {
			continue
		}
		delivered++
		if r.repo == nil {
			continue
		}
		if err := r.repo.RecordTransition(ctx, &handled); err != nil {
			log.Printf("Failed to journal transition from %s: %v", source, err)
		}
	}

	if len(obs.Neighbors) > 0 {
		if r.repo != nil {
			if err := r.repo.UpsertNeighbors(ctx, obs.Neighbors); err != nil {
				log.Printf("Failed to journal neighbors from %s: %v", source, err)
			}
		}
		r.eventBus.Publish(Event{Type: EventNeighborsSeen, Payload: obs.Neighbors})
	}

	if delivered > 0 || len(obs.Neighbors) > 0 {
		log.Printf("Reconciled %d transitions, %d neighbors from %s", delivered, len(obs.Neighbors), source)
	}
	return nil
}

// OnReport journals reports produced after connectivity transitions.
// It implements ReportListener.
func (r *ReconcileService) OnReport(ctx context.Context, report *domain.AdapterReport) {
	if r.repo == nil || report == nil {
		return
	}
	if err := r.repo.SaveReport(ctx, report); err != nil {
		log.Printf("Failed to journal report: %v", err)
	}
}
