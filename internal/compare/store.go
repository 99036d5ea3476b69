package compare

import (
	"context"
	"time"

	"github.com/yourorg/domus-api/internal/listing"
	"github.com/yourorg/domus-api/internal/metrics"
	"github.com/yourorg/domus-api/internal/redisx"
)

// Store keeps one list per session subject in Redis.
type Store struct {
	Redis *redisx.Client
	TTL   time.Duration
}

func key(subject string) string { return "compare:" + subject }

func (s *Store) ttl() time.Duration {
	if s.TTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.TTL
}

func (s *Store) Load(ctx context.Context, subject string) (List, error) {
	var l List
	ok, err := s.Redis.GetJSON(ctx, key(subject), &l)
	if err != nil || !ok {
		return List{}, err
	}
	return l, nil
}

func (s *Store) save(ctx context.Context, subject string, l List) error {
	if len(l) == 0 {
		return s.Redis.Del(ctx, key(subject))
	}
	return s.Redis.SetJSON(ctx, key(subject), l, s.ttl())
}

// Toggle applies List.Toggle to the stored list. Concurrent toggles for the
// same subject are last-writer-wins.
func (s *Store) Toggle(ctx context.Context, subject string, p listing.Property) (List, Outcome, error) {
	l, err := s.Load(ctx, subject)
	if err != nil {
		return nil, "", err
	}
	next, outcome, err := l.Toggle(p)
	if err != nil {
		metrics.CompareToggles.WithLabelValues("full").Inc()
		return l, "", err
	}
	if err := s.save(ctx, subject, next); err != nil {
		return nil, "", err
	}
	metrics.CompareToggles.WithLabelValues(string(outcome)).Inc()
	return next, outcome, nil
}

func (s *Store) Remove(ctx context.Context, subject, id string) (List, error) {
	l, err := s.Load(ctx, subject)
	if err != nil {
		return nil, err
	}
	next := l.Remove(id)
	if err := s.save(ctx, subject, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *Store) Clear(ctx context.Context, subject string) error {
	return s.Redis.Del(ctx, key(subject))
}
