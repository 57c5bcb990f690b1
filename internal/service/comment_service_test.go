package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yatube-backend/internal/dto"
	"yatube-backend/internal/policy"
	"yatube-backend/internal/utils"
)

func TestCommentLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	postID := env.post(t, bob, "post")

	c, err := env.reg.Comment.Create(ctx, alice, postID, dto.CommentForm{Text: "nice"})
	require.NoError(t, err)
	assert.Equal(t, postID, c.PostID)
	assert.Equal(t, "alice", c.Author.Username)
	assert.False(t, c.Created.IsZero())

	list, total, err := env.reg.Comment.List(ctx, postID, utils.LimitOffset{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, "alice", list[0].Author.Username)

	// the post author does not own the comment
	_, err = env.reg.Comment.Patch(ctx, bob, postID, c.ID, dto.CommentPatch{Text: strPtr("edited")})
	assert.ErrorIs(t, err, policy.ErrAuthorizationDenied)
	assert.ErrorIs(t, env.reg.Comment.Delete(ctx, bob, postID, c.ID), policy.ErrAuthorizationDenied)

	updated, err := env.reg.Comment.Update(ctx, alice, postID, c.ID, dto.CommentForm{Text: "nicer"})
	require.NoError(t, err)
	assert.Equal(t, "nicer", updated.Text)

	require.NoError(t, env.reg.Comment.Delete(ctx, alice, postID, c.ID))
	_, err = env.reg.Comment.Get(ctx, postID, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCommentScopedToPost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	first := env.post(t, alice, "first")
	second := env.post(t, alice, "second")

	c, err := env.reg.Comment.Create(ctx, alice, first, dto.CommentForm{Text: "on first"})
	require.NoError(t, err)

	_, err = env.reg.Comment.Get(ctx, second, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = env.reg.Comment.List(ctx, 999, utils.LimitOffset{})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.reg.Comment.Create(ctx, alice, 999, dto.CommentForm{Text: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}
