package policy

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	mutating = []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}
	safe     = []string{http.MethodGet, http.MethodHead, http.MethodOptions}
)

func TestAllowSafeMethodsIgnoreOwner(t *testing.T) {
	for _, m := range safe {
		assert.True(t, Allow(m, 1, 2), m)
		assert.True(t, Allow(m, 0, 2), m)
		assert.True(t, Allow(m, 2, 2), m)
	}
}

func TestAllowMutatingRequiresOwner(t *testing.T) {
	for _, m := range mutating {
		assert.False(t, Allow(m, 1, 2), m)
		assert.False(t, Allow(m, 0, 2), m)
		assert.True(t, Allow(m, 2, 2), m)
	}
}

func TestAllowAnonymousNeverOwns(t *testing.T) {
	assert.False(t, Allow(http.MethodDelete, 0, 0))
}

type post struct{ author int64 }

func (p post) OwnerID() int64 { return p.author }

func TestCheck(t *testing.T) {
	const alice, bob = 1, 2
	bobsPost := post{author: bob}

	err := Check(http.MethodDelete, alice, false, bobsPost)
	assert.ErrorIs(t, err, ErrAuthorizationDenied)

	assert.NoError(t, Check(http.MethodDelete, bob, false, bobsPost))
	assert.NoError(t, Check(http.MethodGet, alice, false, bobsPost))

	// staff may delete but not edit
	assert.NoError(t, Check(http.MethodDelete, alice, true, bobsPost))
	assert.ErrorIs(t, Check(http.MethodPatch, alice, true, bobsPost), ErrAuthorizationDenied)
}

type fakeFollows struct {
	pairs map[[2]int64]bool
	err   error
}

func (f *fakeFollows) FollowExists(_ context.Context, follower, followee int64) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.pairs[[2]int64{follower, followee}], nil
}

func TestValidateFollow(t *testing.T) {
	ctx := context.Background()
	alice := Subject{ID: 1, Username: "alice"}
	bob := Subject{ID: 2, Username: "bob"}

	store := &fakeFollows{pairs: map[[2]int64]bool{}}

	t.Run("first follow succeeds", func(t *testing.T) {
		assert.NoError(t, ValidateFollow(ctx, store, alice, bob))
	})

	t.Run("self follow", func(t *testing.T) {
		err := ValidateFollow(ctx, store, alice, alice)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSelfFollow)
		assert.ErrorIs(t, err, ErrValidationFailed)
		assert.NotErrorIs(t, err, ErrDuplicateFollow)

		var vErr *ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, "following", vErr.Field)
	})

	t.Run("self follow wins over duplicate", func(t *testing.T) {
		s := &fakeFollows{pairs: map[[2]int64]bool{{1, 1}: true}}
		assert.ErrorIs(t, ValidateFollow(ctx, s, alice, alice), ErrSelfFollow)
	})

	t.Run("duplicate follow", func(t *testing.T) {
		store.pairs[[2]int64{alice.ID, bob.ID}] = true
		err := ValidateFollow(ctx, store, alice, bob)
		assert.ErrorIs(t, err, ErrDuplicateFollow)
		assert.ErrorIs(t, err, ErrValidationFailed)
		assert.Contains(t, err.Error(), "bob")
	})

	t.Run("direction matters", func(t *testing.T) {
		assert.NoError(t, ValidateFollow(ctx, store, bob, alice))
	})

	t.Run("store error is passed through", func(t *testing.T) {
		boom := errors.New("boom")
		err := ValidateFollow(ctx, &fakeFollows{err: boom}, alice, bob)
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, ErrValidationFailed)
	})
}
