package service

import (
	"context"
	"testing"
	"time"

	"github.com/maheshrc27/igpublisher/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOAuthStateStore_CreateAndConsume(t *testing.T) {
	repo := newFakeStateRepo()
	store := NewOAuthStateStore(repo, 10*time.Minute, fixedClock(testNow))
	principal := models.Principal{UserID: "user_1", OrgID: "org_1"}

	state, err := store.Create(context.Background(), principal, models.PlatformInstagram)
	require.NoError(t, err)
	assert.Len(t, state.State, 32)
	assert.Equal(t, testNow.Add(10*time.Minute), state.ExpiresAt)

	consumed, err := store.Consume(context.Background(), state.State)
	require.NoError(t, err)
	assert.Equal(t, principal, consumed.Principal())

	_, err = store.Consume(context.Background(), state.State)
	assert.ErrorIs(t, err, models.ErrStateUsed)
}

func TestOAuthStateStore_ConsumeExpired(t *testing.T) {
	repo := newFakeStateRepo()
	state, err := NewOAuthStateStore(repo, time.Minute, fixedClock(testNow)).
		Create(context.Background(), models.Principal{UserID: "user_1"}, models.PlatformInstagram)
	require.NoError(t, err)

	later := NewOAuthStateStore(repo, time.Minute, fixedClock(testNow.Add(time.Minute)))
	_, err = later.Consume(context.Background(), state.State)
	assert.ErrorIs(t, err, models.ErrStateExpired)
}

func TestOAuthStateStore_Rejects(t *testing.T) {
	store := NewOAuthStateStore(newFakeStateRepo(), 0, fixedClock(testNow))

	_, err := store.Create(context.Background(), models.Principal{}, models.PlatformInstagram)
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	_, err = store.Consume(context.Background(), "")
	assert.ErrorIs(t, err, models.ErrStateNotFound)

	_, err = store.Consume(context.Background(), "forged")
	assert.ErrorIs(t, err, models.ErrStateNotFound)
}

func TestOAuthStateStore_PurgeExpired(t *testing.T) {
	repo := newFakeStateRepo()
	store := NewOAuthStateStore(repo, time.Minute, fixedClock(testNow))
	p := models.Principal{UserID: "user_1"}

	used, err := store.Create(context.Background(), p, models.PlatformInstagram)
	require.NoError(t, err)
	_, err = store.Create(context.Background(), p, models.PlatformInstagram)
	require.NoError(t, err)
	_, err = store.Consume(context.Background(), used.State)
	require.NoError(t, err)

	n, err := store.PurgeExpired(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
