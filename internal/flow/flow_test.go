package flow

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_BeginAdvanceFinish(t *testing.T) {
	store := NewStore(time.Minute)
	userID := uuid.New()

	store.Begin(userID, FlowCreateListing, "date")
	require.True(t, store.Advance(userID, "date", "2026-03-10", "meal_type"))
	require.True(t, store.Advance(userID, "meal_type", "lunch", "dish_name"))

	draft := store.Get(userID)
	require.NotNil(t, draft)
	assert.Equal(t, FlowCreateListing, draft.Flow)
	assert.Equal(t, "dish_name", draft.Step)

	fields := store.Finish(userID)
	assert.Equal(t, "2026-03-10", fields["date"])
	assert.Equal(t, "lunch", fields["meal_type"])

	// После завершения черновика нет.
	assert.Nil(t, store.Get(userID))
	assert.Nil(t, store.Finish(userID))
}

func TestStore_BeginOverwrites(t *testing.T) {
	store := NewStore(time.Minute)
	userID := uuid.New()

	store.Begin(userID, FlowCreateListing, "date")
	require.True(t, store.Advance(userID, "date", "2026-03-10", "meal_type"))

	store.Begin(userID, FlowOpenDispute, "reason")
	draft := store.Get(userID)
	require.NotNil(t, draft)
	assert.Equal(t, FlowOpenDispute, draft.Flow)
	assert.Empty(t, draft.Fields)
}

func TestStore_Expiry(t *testing.T) {
	store := NewStore(time.Millisecond)
	userID := uuid.New()

	store.Begin(userID, FlowRateDeal, "stars")
	time.Sleep(5 * time.Millisecond)

	assert.Nil(t, store.Get(userID))
	assert.False(t, store.Advance(userID, "stars", "5", "text"))
}

func TestStore_AbortAndPrune(t *testing.T) {
	store := NewStore(time.Millisecond)
	first := uuid.New()
	second := uuid.New()

	store.Begin(first, FlowCreateListing, "date")
	store.Begin(second, FlowCreateListing, "date")
	store.Abort(first)

	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 1, store.Prune())
}
