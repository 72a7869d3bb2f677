package backend

import (
	"context"
	"log/slog"

	"github.com/ardiutama/Piutang/internal/core"
	"github.com/ardiutama/Piutang/internal/realtime"
	"github.com/ardiutama/Piutang/internal/session"
	"github.com/ardiutama/Piutang/internal/store"
)

// ChangePublisher broadcasts a confirmed mutation to other sessions.
type ChangePublisher interface {
	PublishChange(ctx context.Context, event realtime.ChangeEvent) error
}

// publishingBackend decorates a backend so every confirmed mutation is
// also announced on the change feed. Publishing is best-effort: the
// mutation already persisted, so a feed failure is logged, not returned —
// other sessions converge on their next full load.
type publishingBackend struct {
	store.Backend
	feed ChangePublisher
}

// WithFeed wraps the backend with change-feed publication.
func WithFeed(b store.Backend, feed ChangePublisher) store.Backend {
	return &publishingBackend{Backend: b, feed: feed}
}

func (p *publishingBackend) publish(ctx context.Context, event realtime.ChangeEvent) {
	// Consumers route the event to the owner's store.
	if owner, ok := session.OwnerFromContext(ctx); ok {
		event.Owner = owner
	}
	if err := p.feed.PublishChange(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish change event",
			"error", err,
			"entity", event.Entity,
			"kind", event.Kind,
			"id", event.ID)
	}
}

func (p *publishingBackend) InsertReceivable(ctx context.Context, r core.Receivable) (core.Receivable, error) {
	confirmed, err := p.Backend.InsertReceivable(ctx, r)
	if err != nil {
		return core.Receivable{}, err
	}
	p.publish(ctx, realtime.EventFromReceivable(store.ChangeInsert, confirmed))
	return confirmed, nil
}

func (p *publishingBackend) UpdateReceivable(ctx context.Context, r core.Receivable) (core.Receivable, error) {
	confirmed, err := p.Backend.UpdateReceivable(ctx, r)
	if err != nil {
		return core.Receivable{}, err
	}
	p.publish(ctx, realtime.EventFromReceivable(store.ChangeUpdate, confirmed))
	return confirmed, nil
}

func (p *publishingBackend) RecordPayment(ctx context.Context, id string, amount int64) (core.Receivable, error) {
	confirmed, err := p.Backend.RecordPayment(ctx, id, amount)
	if err != nil {
		return core.Receivable{}, err
	}
	p.publish(ctx, realtime.EventFromReceivable(store.ChangeUpdate, confirmed))
	return confirmed, nil
}

func (p *publishingBackend) DeleteReceivable(ctx context.Context, id string) error {
	if err := p.Backend.DeleteReceivable(ctx, id); err != nil {
		return err
	}
	p.publish(ctx, realtime.DeleteEvent(core.KindReceivable, id))
	return nil
}

func (p *publishingBackend) InsertRevenue(ctx context.Context, v core.Revenue) (core.Revenue, error) {
	confirmed, err := p.Backend.InsertRevenue(ctx, v)
	if err != nil {
		return core.Revenue{}, err
	}
	p.publish(ctx, realtime.EventFromRevenue(store.ChangeInsert, confirmed))
	return confirmed, nil
}

func (p *publishingBackend) UpdateRevenue(ctx context.Context, v core.Revenue) (core.Revenue, error) {
	confirmed, err := p.Backend.UpdateRevenue(ctx, v)
	if err != nil {
		return core.Revenue{}, err
	}
	p.publish(ctx, realtime.EventFromRevenue(store.ChangeUpdate, confirmed))
	return confirmed, nil
}

func (p *publishingBackend) DeleteRevenue(ctx context.Context, id string) error {
	if err := p.Backend.DeleteRevenue(ctx, id); err != nil {
		return err
	}
	p.publish(ctx, realtime.DeleteEvent(core.KindRevenue, id))
	return nil
}
