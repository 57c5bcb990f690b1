package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yatube-backend/internal/model"
	"yatube-backend/internal/policy"
)

func TestFollowScenarios(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")

	t.Run("alice follows bob", func(t *testing.T) {
		f, err := env.reg.Follow.Create(ctx, alice, "bob")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, f.UserID)
		assert.Equal(t, bob.ID, f.FollowingID)
		assert.Equal(t, "alice", f.User.Username)
		assert.Equal(t, "bob", f.Following.Username)
	})

	t.Run("alice follows herself", func(t *testing.T) {
		_, err := env.reg.Follow.Create(ctx, alice, "alice")
		assert.ErrorIs(t, err, policy.ErrSelfFollow)
	})

	t.Run("alice follows bob again", func(t *testing.T) {
		_, err := env.reg.Follow.Create(ctx, alice, "bob")
		assert.ErrorIs(t, err, policy.ErrDuplicateFollow)
	})

	t.Run("unknown followee", func(t *testing.T) {
		_, err := env.reg.Follow.Create(ctx, alice, "ghost")
		var vErr *policy.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, "following", vErr.Field)
	})

	t.Run("bob may follow alice back", func(t *testing.T) {
		_, err := env.reg.Follow.Create(ctx, bob, "alice")
		require.NoError(t, err)
	})

	var count int64
	require.NoError(t, env.db.Model(&model.Follow{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestFollowUniqueIndexBlocksDuplicates(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")

	require.NoError(t, env.db.Create(&model.Follow{UserID: alice.ID, FollowingID: bob.ID}).Error)
	err := env.db.Create(&model.Follow{UserID: alice.ID, FollowingID: bob.ID}).Error
	require.Error(t, err)
	assert.True(t, isDuplicateKey(err), "got %v", err)

	err = env.db.Create(&model.Follow{UserID: alice.ID, FollowingID: alice.ID}).Error
	assert.Error(t, err, "check constraint should reject self follow")
}

func TestFollowListAndSearch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	env.user(t, "bob")
	env.user(t, "bobby")
	env.user(t, "carol")
	dave := env.user(t, "dave")
	for _, name := range []string{"bob", "bobby", "carol"} {
		_, err := env.reg.Follow.Create(ctx, alice, name)
		require.NoError(t, err)
	}
	_, err := env.reg.Follow.Create(ctx, dave, "carol")
	require.NoError(t, err)

	all, err := env.reg.Follow.List(ctx, alice.ID, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	for _, f := range all {
		assert.Equal(t, "alice", f.User.Username)
	}

	bobs, err := env.reg.Follow.List(ctx, alice.ID, "BOB")
	require.NoError(t, err)
	assert.Len(t, bobs, 2)

	// search also matches the follower name, which is always alice here
	self, err := env.reg.Follow.List(ctx, alice.ID, "ali")
	require.NoError(t, err)
	assert.Len(t, self, 3)

	followers, err := env.reg.Follow.FollowerIDs(ctx, env.mustUserID(t, "carol"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{alice.ID, dave.ID}, followers)
}

func (e *testEnv) mustUserID(t *testing.T, username string) int64 {
	t.Helper()
	u, err := e.reg.User.FindByUsername(context.Background(), username)
	require.NoError(t, err)
	return u.ID
}
