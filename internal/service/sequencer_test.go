package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/turno-service/internal/domain"
	apperrors "github.com/spec-kit/turno-service/pkg/util"
)

func seedTicket(t *testing.T, repo *memTicketRepo, number string, requestedAt time.Time) {
	t.Helper()
	err := repo.Create(context.Background(), &domain.Ticket{
		Number:        number,
		VisitorID:     "visitor-1",
		ServiceTypeID: "type-1",
		Category:      domain.CategoryNone,
		State:         domain.TicketStatePending,
		RequestedAt:   requestedAt,
	})
	require.NoError(t, err)
}

func TestSequencerIssuesSequentialNumbers(t *testing.T) {
	repo := newMemTicketRepo()
	seq := NewSequencer(repo, domain.DefaultCategoryPolicy(), 0)
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	number, err := seq.Issue(context.Background(), domain.CategoryElderly, now)
	require.NoError(t, err)
	assert.Equal(t, "A001", number)

	seedTicket(t, repo, number, now)

	number, err = seq.Issue(context.Background(), domain.CategoryElderly, now)
	require.NoError(t, err)
	assert.Equal(t, "A002", number)
}

func TestSequencerPrefixPerCategory(t *testing.T) {
	tests := []struct {
		category domain.Category
		want     string
	}{
		{domain.CategoryElderly, "A001"},
		{domain.CategoryDisability, "D001"},
		{domain.CategoryPregnancy, "E001"},
		{domain.CategoryNone, "N001"},
		{domain.Category("martian"), "N001"},
	}

	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	for _, tc := range tests {
		t.Run(string(tc.category), func(t *testing.T) {
			seq := NewSequencer(newMemTicketRepo(), domain.DefaultCategoryPolicy(), 0)
			number, err := seq.Issue(context.Background(), tc.category, now)
			require.NoError(t, err)
			assert.Equal(t, tc.want, number)
		})
	}
}

func TestSequencerRestartsPerDay(t *testing.T) {
	repo := newMemTicketRepo()
	seq := NewSequencer(repo, domain.DefaultCategoryPolicy(), 0)
	yesterday := time.Date(2026, 8, 30, 15, 0, 0, 0, time.UTC)
	today := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)

	seedTicket(t, repo, "A005", yesterday)

	number, err := seq.Issue(context.Background(), domain.CategoryElderly, today)
	require.NoError(t, err)
	assert.Equal(t, "A001", number)
}

func TestSequencerContinuesFromHighest(t *testing.T) {
	repo := newMemTicketRepo()
	seq := NewSequencer(repo, domain.DefaultCategoryPolicy(), 0)
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	seedTicket(t, repo, "A009", now)

	number, err := seq.Issue(context.Background(), domain.CategoryElderly, now)
	require.NoError(t, err)
	assert.Equal(t, "A010", number)
}

func TestSequencerFallsBackToTimeSuffix(t *testing.T) {
	repo := newMemTicketRepo()
	now := time.Unix(1787000123, 0).UTC()
	fallback := fmt.Sprintf("A%03d", int(now.Unix()%1000))

	repo.numberExistsFn = func(number string) (bool, error) {
		return number != fallback, nil
	}
	seq := NewSequencer(repo, domain.DefaultCategoryPolicy(), 3)

	number, err := seq.Issue(context.Background(), domain.CategoryElderly, now)
	require.NoError(t, err)
	assert.Equal(t, fallback, number)
}

func TestSequencerExhausted(t *testing.T) {
	repo := newMemTicketRepo()
	repo.numberExistsFn = func(number string) (bool, error) { return true, nil }
	seq := NewSequencer(repo, domain.DefaultCategoryPolicy(), 3)

	_, err := seq.Issue(context.Background(), domain.CategoryElderly, time.Now().UTC())
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeSequenceExhausted))
}
