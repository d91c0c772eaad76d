package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberapp/ember-go/internal/fault"
	"github.com/emberapp/ember-go/internal/models"
	"github.com/emberapp/ember-go/internal/store"
	"github.com/emberapp/ember-go/internal/testutil"
)

// Unconfigured gateways must degrade to a tagged fault without any
// network attempt; a nil client is exactly what the provider hands out
// in that state.
func TestGatewaysNotConfigured(t *testing.T) {
	ctx := context.Background()

	events := store.NewEvents(nil)
	_, err := events.Create(ctx, store.NewEvent{UserID: "u1", Type: "x", Importance: models.ImportanceLow})
	assert.True(t, fault.Is(err, fault.NotConfigured))
	_, err = events.List(ctx, store.ListOptions{})
	assert.True(t, fault.Is(err, fault.NotConfigured))
	_, err = events.Update(ctx, "id", store.EventPatch{})
	assert.True(t, fault.Is(err, fault.NotConfigured))
	err = events.Delete(ctx, "id")
	assert.True(t, fault.Is(err, fault.NotConfigured))

	_, err = store.NewCheckIns(nil).List(ctx, store.ListOptions{})
	assert.True(t, fault.Is(err, fault.NotConfigured))
	_, err = store.NewReflections(nil).List(ctx, store.ListOptions{})
	assert.True(t, fault.Is(err, fault.NotConfigured))
}

func TestEventRoundTrip(t *testing.T) {
	client, userID := testutil.NewBoundClient(t)
	ctx := context.Background()
	events := store.NewEvents(client)

	created, err := events.Create(ctx, store.NewEvent{
		UserID:     userID,
		Type:       "meeting",
		Importance: models.ImportanceMedium,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, userID, created.UserID)
	assert.Equal(t, "meeting", created.Type)
	assert.Equal(t, models.ImportanceMedium, created.Importance)
	assert.Nil(t, created.Time, "untimed event keeps a null time")
	assert.False(t, created.CreatedAt.IsZero())

	listed, err := events.List(ctx, store.ListOptions{})
	require.NoError(t, err)
	seen := 0
	for _, ev := range listed {
		if ev.ID == created.ID {
			seen++
			assert.Equal(t, created.Type, ev.Type)
			assert.Nil(t, ev.Time)
		}
	}
	assert.Equal(t, 1, seen, "created row appears exactly once")
}

func TestEventUpdatePatchesOnlyNamedFields(t *testing.T) {
	client, userID := testutil.NewBoundClient(t)
	ctx := context.Background()
	events := store.NewEvents(client)

	when := time.Now().Add(24 * time.Hour).Truncate(time.Second)
	created, err := events.Create(ctx, store.NewEvent{
		UserID:     userID,
		Type:       "dentist",
		Time:       &when,
		Importance: models.ImportanceLow,
	})
	require.NoError(t, err)

	imp := models.ImportanceHigh
	updated, err := events.Update(ctx, created.ID, store.EventPatch{Importance: &imp})
	require.NoError(t, err)
	assert.Equal(t, models.ImportanceHigh, updated.Importance)
	assert.Equal(t, created.Type, updated.Type)
	require.NotNil(t, updated.Time)
	assert.True(t, updated.Time.Equal(when), "unnamed fields stay untouched")

	// Empty patch returns the row as-is.
	same, err := events.Update(ctx, created.ID, store.EventPatch{})
	require.NoError(t, err)
	assert.Equal(t, updated.Importance, same.Importance)
}

func TestEventDeleteIdempotent(t *testing.T) {
	client, userID := testutil.NewBoundClient(t)
	ctx := context.Background()
	events := store.NewEvents(client)

	created, err := events.Create(ctx, store.NewEvent{
		UserID:     userID,
		Type:       "errand",
		Importance: models.ImportanceLow,
	})
	require.NoError(t, err)

	require.NoError(t, events.Delete(ctx, created.ID))

	listed, err := events.List(ctx, store.ListOptions{})
	require.NoError(t, err)
	for _, ev := range listed {
		assert.NotEqual(t, created.ID, ev.ID)
	}

	// Deleting the same id again is indistinguishable from the first.
	require.NoError(t, events.Delete(ctx, created.ID))
}

func TestEventInvalidImportanceRejected(t *testing.T) {
	client, userID := testutil.NewBoundClient(t)
	ctx := context.Background()

	_, err := store.NewEvents(client).Create(ctx, store.NewEvent{
		UserID:     userID,
		Type:       "x",
		Importance: models.Importance("urgent"),
	})
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.ConstraintViolation))
}

func TestCheckInListOrderAndLimit(t *testing.T) {
	client, userID := testutil.NewBoundClient(t)
	ctx := context.Background()
	checkins := store.NewCheckIns(client)

	base := time.Now().Truncate(time.Second)
	older := base.Add(-2 * time.Hour)
	newer := base.Add(-1 * time.Hour)

	first, err := checkins.Create(ctx, store.NewCheckIn{
		UserID: userID, Mood: "tired", Energy: 3, Timestamp: &older,
	})
	require.NoError(t, err)
	second, err := checkins.Create(ctx, store.NewCheckIn{
		UserID: userID, Mood: "okay", Energy: 5, Timestamp: &newer,
	})
	require.NoError(t, err)
	third, err := checkins.Create(ctx, store.NewCheckIn{
		UserID: userID, Mood: "good", Energy: 8,
	})
	require.NoError(t, err)
	assert.False(t, third.Timestamp.IsZero(), "timestamp defaults server-side")

	listed, err := checkins.List(ctx, store.ListOptions{})
	require.NoError(t, err)

	// Our three rows come back newest-first by occurrence time.
	positions := map[string]int{}
	for i, ci := range listed {
		if ci.UserID == userID {
			positions[ci.ID] = i
		}
	}
	require.Contains(t, positions, first.ID)
	require.Contains(t, positions, second.ID)
	require.Contains(t, positions, third.ID)
	assert.Less(t, positions[third.ID], positions[second.ID])
	assert.Less(t, positions[second.ID], positions[first.ID])

	capped, err := checkins.List(ctx, store.ListOptions{Limit: 2})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(capped), 2)
}

func TestCheckInEnergyConstraint(t *testing.T) {
	client, userID := testutil.NewBoundClient(t)
	ctx := context.Background()
	checkins := store.NewCheckIns(client)

	for _, energy := range []int{0, 11} {
		_, err := checkins.Create(ctx, store.NewCheckIn{
			UserID: userID, Mood: "x", Energy: energy,
		})
		require.Error(t, err, "energy %d must be rejected", energy)
		assert.True(t, fault.Is(err, fault.ConstraintViolation))
	}

	for _, energy := range []int{1, 10} {
		ci, err := checkins.Create(ctx, store.NewCheckIn{
			UserID: userID, Mood: "x", Energy: energy,
		})
		require.NoError(t, err, "energy %d must be accepted", energy)
		assert.Equal(t, energy, ci.Energy)
	}
}

func TestCheckInEmotionsDefaultAndPatch(t *testing.T) {
	client, userID := testutil.NewBoundClient(t)
	ctx := context.Background()
	checkins := store.NewCheckIns(client)

	created, err := checkins.Create(ctx, store.NewCheckIn{
		UserID: userID, Mood: "flat", Energy: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{}, created.Emotions, "emotions default to empty, not null")

	tagged, err := checkins.Create(ctx, store.NewCheckIn{
		UserID: userID, Mood: "mixed", Energy: 6,
		Emotions: []string{"hopeful", "anxious"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"hopeful", "anxious"}, tagged.Emotions)

	repl := []string{"calm"}
	updated, err := checkins.Update(ctx, tagged.ID, store.CheckInPatch{Emotions: &repl})
	require.NoError(t, err)
	assert.Equal(t, []string{"calm"}, updated.Emotions)
	assert.Equal(t, "mixed", updated.Mood)
}

func TestReflectionContentConstraint(t *testing.T) {
	client, userID := testutil.NewBoundClient(t)
	ctx := context.Background()
	reflections := store.NewReflections(client)

	_, err := reflections.Create(ctx, store.NewReflection{UserID: userID, Content: ""})
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.ConstraintViolation))

	r, err := reflections.Create(ctx, store.NewReflection{
		UserID: userID, Content: "slept better after the evening walk",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, "slept better after the evening walk", r.Content)
}

func TestRowLevelScoping(t *testing.T) {
	client, u1 := testutil.NewBoundClient(t)
	ctx := context.Background()

	if !testutil.RowLevelSecurityActive(t, client) {
		t.Skip("test role bypasses row-level security, scoping not observable")
	}

	created, err := store.NewEvents(client).Create(ctx, store.NewEvent{
		UserID: u1, Type: "private", Importance: models.ImportanceHigh,
	})
	require.NoError(t, err)

	// Rebind the handle to a second identity; u1's rows must vanish.
	u2 := uuid.NewString()
	require.NoError(t, client.BindIdentity(ctx, u2))
	pool, err := client.Session()
	require.NoError(t, err)
	_, err = pool.ExecContext(ctx,
		`INSERT INTO users (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, u2)
	require.NoError(t, err)

	listed, err := store.NewEvents(client).List(ctx, store.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, listed, "second identity must not see the first identity's rows")

	// Nor modify them: the row is simply not addressable.
	_, err = store.NewEvents(client).Update(ctx, created.ID, store.EventPatch{})
	assert.True(t, fault.Is(err, fault.NotFound))

	// Writing a row owned by someone else is rejected by the backend.
	_, err = store.NewEvents(client).Create(ctx, store.NewEvent{
		UserID: u1, Type: "forged", Importance: models.ImportanceLow,
	})
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.ConstraintViolation))
}
