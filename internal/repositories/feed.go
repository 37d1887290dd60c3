package repositories

import (
	"context"
	"fmt"

	"taskhub/internal/docstore"
)

// Feed is a typed live query. Every call to Next returns the full current
// record set after the previous one.
type Feed[T any] struct {
	sub       *docstore.Subscription
	transform func([]T)
}

func newFeed[T any](sub *docstore.Subscription) *Feed[T] {
	return &Feed[T]{sub: sub}
}

// WithTransform applies fn to every decoded snapshot before it is returned,
// e.g. to sort it.
func (f *Feed[T]) WithTransform(fn func([]T)) *Feed[T] {
	f.transform = fn
	return f
}

// Next blocks until a snapshot is available. It returns
// docstore.ErrSubscriptionClosed once the feed is closed.
func (f *Feed[T]) Next(ctx context.Context) ([]T, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case snap, ok := <-f.sub.C():
		if !ok {
			return nil, docstore.ErrSubscriptionClosed
		}
		if snap.Err != nil {
			return nil, fmt.Errorf("%s snapshot: %w", f.sub.Collection(), snap.Err)
		}
		items, err := decodeAll[T](snap.Docs)
		if err != nil {
			return nil, err
		}
		if f.transform != nil {
			f.transform(items)
		}
		return items, nil
	}
}

func (f *Feed[T]) Close() {
	f.sub.Close()
}

func subscribe[T any](ctx context.Context, store docstore.Store, collection string, filter docstore.Filter) (*Feed[T], error) {
	sub, err := store.Subscribe(ctx, collection, filter)
	if err != nil {
		return nil, err
	}
	return newFeed[T](sub), nil
}
