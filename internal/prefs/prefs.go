// Package prefs stores per-subject preferences and recent searches.
package prefs

import (
	"context"
	"strings"
	"time"

	"github.com/yourorg/domus-api/internal/redisx"
)

// HistoryLimit caps the number of remembered searches.
const HistoryLimit = 10

type Preferences struct {
	DarkMode bool `json:"darkMode"`
}

type Store struct {
	Redis *redisx.Client
	TTL   time.Duration // guest subjects only; user data does not expire
}

func prefsKey(subject string) string   { return "prefs:" + subject }
func historyKey(subject string) string { return "history:" + subject }

func (s *Store) ttlFor(subject string) time.Duration {
	if !strings.HasPrefix(subject, "guest:") {
		return 0
	}
	if s.TTL <= 0 {
		return 24 * time.Hour
	}
	return s.TTL
}

func (s *Store) Get(ctx context.Context, subject string) (Preferences, error) {
	var p Preferences
	_, err := s.Redis.GetJSON(ctx, prefsKey(subject), &p)
	return p, err
}

func (s *Store) Put(ctx context.Context, subject string, p Preferences) error {
	return s.Redis.SetJSON(ctx, prefsKey(subject), p, s.ttlFor(subject))
}

// AddSearch records location as the most recent search, dropping an older
// copy of it and anything past HistoryLimit.
func (s *Store) AddSearch(ctx context.Context, subject, location string) error {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil
	}
	if err := s.Redis.PushRecent(ctx, historyKey(subject), location, HistoryLimit); err != nil {
		return err
	}
	if ttl := s.ttlFor(subject); ttl > 0 {
		return s.Redis.Rdb.Expire(ctx, historyKey(subject), ttl).Err()
	}
	return nil
}

func (s *Store) History(ctx context.Context, subject string) ([]string, error) {
	return s.Redis.Range(ctx, historyKey(subject), HistoryLimit)
}

func (s *Store) ClearHistory(ctx context.Context, subject string) error {
	return s.Redis.Del(ctx, historyKey(subject))
}

// DeleteAll removes everything stored for subject.
func (s *Store) DeleteAll(ctx context.Context, subject string) error {
	return s.Redis.Del(ctx, prefsKey(subject), historyKey(subject))
}
