package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/spec-kit/turno-service/internal/domain"
	"github.com/spec-kit/turno-service/internal/repository"
	apperrors "github.com/spec-kit/turno-service/pkg/util"
)

// DefaultIssueAttempts bounds the read-increment-validate loop.
const DefaultIssueAttempts = 100

// Sequencer issues unique, monotonically increasing ticket numbers scoped to
// (prefix, calendar day). The read-then-write sequence runs inside a critical
// section per (prefix, day); collisions with other instances surface as
// duplicate-number errors on insert and the caller re-issues.
type Sequencer struct {
	tickets     repository.TicketRepository
	policy      *domain.CategoryPolicy
	maxAttempts int

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSequencer constructs the sequencer.
func NewSequencer(tickets repository.TicketRepository, policy *domain.CategoryPolicy, maxAttempts int) *Sequencer {
	if maxAttempts <= 0 {
		maxAttempts = DefaultIssueAttempts
	}
	return &Sequencer{
		tickets:     tickets,
		policy:      policy,
		maxAttempts: maxAttempts,
		locks:       make(map[string]*sync.Mutex),
	}
}

// Issue returns the next free number for the category's prefix on the given
// day. When the bounded loop cannot find a free sequential number, a
// time-derived suffix trades strict sequentiality for uniqueness so the
// visitor's request still succeeds.
func (s *Sequencer) Issue(ctx context.Context, category domain.Category, now time.Time) (string, error) {
	prefix := s.policy.Prefix(category)
	day := now.UTC().Truncate(24 * time.Hour)

	lock := s.dayLock(prefix, day)
	lock.Lock()
	defer lock.Unlock()

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		issued, err := s.tickets.ListByPrefixAndDate(ctx, prefix, day)
		if err != nil {
			return "", apperrors.NewTransientStore(err)
		}
		candidate := formatNumber(prefix, highestSuffix(prefix, issued)+1)
		exists, err := s.tickets.NumberExists(ctx, candidate)
		if err != nil {
			return "", apperrors.NewTransientStore(err)
		}
		if !exists {
			return candidate, nil
		}
	}

	fallback := formatNumber(prefix, int(now.Unix()%1000))
	exists, err := s.tickets.NumberExists(ctx, fallback)
	if err != nil {
		return "", apperrors.NewTransientStore(err)
	}
	if exists {
		return "", apperrors.NewSequenceExhausted(prefix)
	}
	return fallback, nil
}

func (s *Sequencer) dayLock(prefix string, day time.Time) *sync.Mutex {
	key := prefix + day.Format("20060102")
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	return lock
}

// formatNumber zero-pads to three digits; larger values simply use more
// digits, there is no wraparound.
func formatNumber(prefix string, n int) string {
	return fmt.Sprintf("%s%03d", prefix, n)
}

func highestSuffix(prefix string, tickets []domain.Ticket) int {
	max := 0
	for _, ticket := range tickets {
		if len(ticket.Number) <= len(prefix) {
			continue
		}
		n, err := strconv.Atoi(ticket.Number[len(prefix):])
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return max
}
