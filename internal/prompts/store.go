// Package prompts keeps the short-lived conversational state of users who are
// in the middle of a multi-step flow (upload a video, pick a duel opponent).
package prompts

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

type Namespace string

const (
	NamespaceVideo  Namespace = "video"
	NamespaceWeekly Namespace = "weekly"
	NamespaceDuel   Namespace = "duel"
)

type Stage string

const (
	StageAwaitingMedia    Stage = "awaiting_media"
	StageChoosingOpponent Stage = "choosing_opponent"
	StageChoosingArbiter  Stage = "choosing_arbiter"
)

// CompletedGrace is how long a finished prompt keeps swallowing duplicate
// uploads (Telegram delivers albums as several messages).
const CompletedGrace = 30 * time.Second

type Prompt struct {
	// Kind is the task type for video prompts and the sub-goal for weekly ones.
	Kind  string
	Stage Stage

	OpponentID int64
	ArbiterID  int64
	WeekKey    string

	ChatID    int64
	MessageID int

	CreatedAt   time.Time
	CompletedAt time.Time
	Processing  bool
}

type ClaimState int

const (
	ClaimMissing ClaimState = iota
	ClaimOK
	ClaimBusy
	ClaimCompleted
)

type key struct {
	userID int64
	ns     Namespace
}

type entry struct {
	prompt    Prompt
	expiresAt time.Time
}

// Store is safe for concurrent use. Entries disappear after ttl or when the
// least recently used ones are evicted.
type Store struct {
	mu    sync.Mutex
	cache *lru.Cache
	ttl   time.Duration
	now   func() time.Time
}

func New(size int, ttl time.Duration, now func() time.Time) (*Store, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("creating prompt cache: %w", err)
	}
	if now == nil {
		now = time.Now
	}
	return &Store{cache: cache, ttl: ttl, now: now}, nil
}

// Put replaces whatever the user had pending in ns.
func (s *Store) Put(userID int64, ns Namespace, p Prompt) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	s.cache.Add(key{userID, ns}, &entry{prompt: p, expiresAt: now.Add(s.ttl)})
}

func (s *Store) Get(userID int64, ns Namespace) (Prompt, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.get(key{userID, ns})
	if !ok {
		return Prompt{}, false
	}
	return e.prompt, true
}

// Pop removes and returns the pending prompt.
func (s *Store) Pop(userID int64, ns Namespace) (Prompt, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{userID, ns}
	e, ok := s.get(k)
	if !ok {
		return Prompt{}, false
	}
	s.cache.Remove(k)
	return e.prompt, true
}

// Update mutates the pending prompt in place. It reports false when nothing
// is pending.
func (s *Store) Update(userID int64, ns Namespace, fn func(p *Prompt)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.get(key{userID, ns})
	if !ok {
		return false
	}
	fn(&e.prompt)
	return true
}

// Claim marks the pending prompt as being processed so that a concurrent
// upload from the same user is not handled twice.
func (s *Store) Claim(userID int64, ns Namespace) (Prompt, ClaimState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{userID, ns}
	e, ok := s.get(k)
	if !ok {
		return Prompt{}, ClaimMissing
	}
	if !e.prompt.CompletedAt.IsZero() {
		if s.now().Sub(e.prompt.CompletedAt) < CompletedGrace {
			return e.prompt, ClaimCompleted
		}
		s.cache.Remove(k)
		return Prompt{}, ClaimMissing
	}
	if e.prompt.Processing {
		return e.prompt, ClaimBusy
	}

	e.prompt.Processing = true
	return e.prompt, ClaimOK
}

// Complete keeps the prompt around for CompletedGrace.
func (s *Store) Complete(userID int64, ns Namespace) {
	s.Update(userID, ns, func(p *Prompt) {
		p.Processing = false
		p.CompletedAt = s.now()
	})
}

// Release drops the processing flag after a failed attempt so the user can
// retry.
func (s *Store) Release(userID int64, ns Namespace) {
	s.Update(userID, ns, func(p *Prompt) {
		p.Processing = false
	})
}

func (s *Store) Len() int {
	return s.cache.Len()
}

func (s *Store) Purge() {
	s.cache.Purge()
}

func (s *Store) get(k key) (*entry, bool) {
	v, ok := s.cache.Get(k)
	if !ok {
		return nil, false
	}
	e, ok := v.(*entry)
	if !ok || !s.now().Before(e.expiresAt) {
		s.cache.Remove(k)
		return nil, false
	}
	return e, true
}
