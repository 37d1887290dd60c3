package realtime

import "context"

// Source is a live query feeding one client subscription.
type Source interface {
	// Next blocks until the next full snapshot is available.
	Next(ctx context.Context) (any, error)
	Close()
}

// Opener starts a Source for the given user and topic key.
type Opener func(ctx context.Context, userID, key string) (Source, error)

type typedFeed[T any] interface {
	Next(ctx context.Context) ([]T, error)
	Close()
}

type feedSource[T any] struct {
	feed typedFeed[T]
}

// FromFeed adapts a typed feed to a Source.
func FromFeed[T any](feed typedFeed[T]) Source {
	return feedSource[T]{feed: feed}
}

func (s feedSource[T]) Next(ctx context.Context) (any, error) {
	items, err := s.feed.Next(ctx)
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s feedSource[T]) Close() { s.feed.Close() }
