package providers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmcosta/dealfinder/internal/models"
)

type stubProvider struct {
	name  string
	deals []models.FlightDeal
	err   error
	calls int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) SearchDeals(ctx context.Context, q Query) ([]models.FlightDeal, error) {
	s.calls++
	return s.deals, s.err
}

func TestComposer_PrimarySucceeds(t *testing.T) {
	primary := &stubProvider{name: "amadeus", deals: []models.FlightDeal{deal("OPO", "CDG", "2026-05-10", "2026-05-17", 100)}}
	secondary := &stubProvider{name: "travelpayouts"}

	outcome, err := NewComposer(primary, secondary).Search(context.Background(), Query{})
	require.NoError(t, err)
	assert.Equal(t, "amadeus", outcome.Provider)
	assert.False(t, outcome.FallbackUsed)
	assert.Len(t, outcome.Deals, 1)
	assert.Equal(t, 0, secondary.calls)
}

func TestComposer_ActionableErrorTriggersFallback(t *testing.T) {
	primary := &stubProvider{
		name: "amadeus",
		err:  &APIError{Provider: "amadeus", Kind: KindQuotaExceeded, Message: "quota exceeded"},
	}
	secondary := &stubProvider{
		name:  "travelpayouts",
		deals: []models.FlightDeal{deal("OPO", "CDG", "2026-05-10", "2026-05-17", 110)},
	}

	outcome, err := NewComposer(primary, secondary).Search(context.Background(), Query{})
	require.NoError(t, err)
	assert.Equal(t, "travelpayouts", outcome.Provider)
	assert.True(t, outcome.FallbackUsed)
	assert.Len(t, outcome.Deals, 1)
}

func TestComposer_NonActionableErrorPropagates(t *testing.T) {
	primary := &stubProvider{
		name: "amadeus",
		err:  &APIError{Provider: "amadeus", Kind: KindUpstream, Message: "server error"},
	}
	secondary := &stubProvider{name: "travelpayouts"}

	_, err := NewComposer(primary, secondary).Search(context.Background(), Query{})
	require.Error(t, err)
	assert.Equal(t, 0, secondary.calls)
}

func TestComposer_NoSecondaryPropagates(t *testing.T) {
	primary := &stubProvider{
		name: "amadeus",
		err:  &APIError{Provider: "amadeus", Kind: KindAuthFailed, Message: "bad credentials"},
	}

	_, err := NewComposer(primary, nil).Search(context.Background(), Query{})
	require.Error(t, err)

	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindAuthFailed, kind)
}

func TestComposer_SecondaryErrorSurfaces(t *testing.T) {
	primary := &stubProvider{
		name: "amadeus",
		err:  &APIError{Provider: "amadeus", Kind: KindRateLimited, Message: "rate limited"},
	}
	secondaryErr := &APIError{Provider: "travelpayouts", Kind: KindAuthFailed, Message: "token rejected"}
	secondary := &stubProvider{name: "travelpayouts", err: secondaryErr}

	outcome, err := NewComposer(primary, secondary).Search(context.Background(), Query{})
	require.Error(t, err)
	assert.True(t, outcome.FallbackUsed)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "travelpayouts", apiErr.Provider)
}
