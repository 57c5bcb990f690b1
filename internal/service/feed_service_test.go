package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yatube-backend/internal/utils"
)

func postTexts(t *testing.T, env *testEnv, userID int64, lo utils.LimitOffset) ([]string, int64) {
	t.Helper()
	posts, total, err := env.reg.Feed.Read(context.Background(), userID, lo)
	require.NoError(t, err)
	texts := make([]string, 0, len(posts))
	for _, p := range posts {
		texts = append(texts, p.Text)
	}
	return texts, total
}

func TestFeedReceivesFollowedPosts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	carol := env.user(t, "carol")

	_, err := env.reg.Follow.Create(ctx, alice, "bob")
	require.NoError(t, err)

	env.post(t, bob, "bob 1")
	env.post(t, carol, "carol 1")
	time.Sleep(2 * time.Millisecond)
	env.post(t, bob, "bob 2")

	texts, total := postTexts(t, env, alice.ID, utils.LimitOffset{})
	assert.Equal(t, int64(2), total)
	assert.Equal(t, []string{"bob 2", "bob 1"}, texts)

	texts, _ = postTexts(t, env, bob.ID, utils.LimitOffset{})
	assert.Empty(t, texts)
}

func TestFeedBackfillOnFollow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	env.post(t, bob, "before follow")

	_, err := env.reg.Follow.Create(ctx, alice, "bob")
	require.NoError(t, err)

	texts, _ := postTexts(t, env, alice.ID, utils.LimitOffset{})
	assert.Equal(t, []string{"before follow"}, texts)
}

func TestFeedTrimsAndPages(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	_, err := env.reg.Follow.Create(ctx, alice, "bob")
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		env.post(t, bob, "p"+strconv.Itoa(i))
		time.Sleep(2 * time.Millisecond)
	}

	// FeedMaxLength is 3 in the test env
	texts, total := postTexts(t, env, alice.ID, utils.LimitOffset{})
	assert.Equal(t, int64(3), total)
	assert.Equal(t, []string{"p5", "p4", "p3"}, texts)

	texts, _ = postTexts(t, env, alice.ID, utils.LimitOffset{Limit: 1, Offset: 1, Paged: true})
	assert.Equal(t, []string{"p4"}, texts)
}

func TestFeedDropsDeletedPosts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	_, err := env.reg.Follow.Create(ctx, alice, "bob")
	require.NoError(t, err)

	keep := env.post(t, bob, "keep")
	gone := env.post(t, bob, "gone")
	require.NoError(t, env.reg.Post.Delete(ctx, bob, gone))

	texts, total := postTexts(t, env, alice.ID, utils.LimitOffset{})
	assert.Equal(t, []string{"keep"}, texts)
	assert.Equal(t, int64(1), total)

	members, err := env.rdb.ZRange(ctx, feedKey(alice.ID), 0, -1).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{strconv.FormatInt(keep, 10)}, members)
}

func TestFeedRunWithoutReaderReturns(t *testing.T) {
	env := newTestEnv(t)
	done := make(chan struct{})
	go func() {
		env.reg.Feed.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run should return immediately without a kafka reader")
	}
}

// fakeReader replays queued results, then blocks until ctx ends.
type fakeReader struct {
	mu        sync.Mutex
	queue     []fetchResult
	committed []int64
	fetches   int
}

type fetchResult struct {
	msg kafka.Message
	err error
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	r.fetches++
	if len(r.queue) > 0 {
		next := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return next.msg, next.err
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

func eventMessage(t *testing.T, offset int64, ev postEvent) kafka.Message {
	t.Helper()
	payload, err := json.Marshal(ev)
	require.NoError(t, err)
	return kafka.Message{Topic: "yatube.post-events", Offset: offset, Value: payload}
}

// startConsumer runs the feed consumer on reader and returns a stop func that
// waits for it to exit.
func startConsumer(t *testing.T, env *testEnv, reader *fakeReader) func() {
	t.Helper()
	feed := env.reg.Feed
	feed.reader = reader
	feed.retry = retryPolicy{
		attempts:     2,
		baseBackoff:  time.Millisecond,
		maxBackoff:   5 * time.Millisecond,
		fetchBackoff: time.Millisecond,
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		feed.Run(ctx)
		close(done)
	}()
	stop := func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("feed consumer did not stop")
		}
	}
	t.Cleanup(stop)
	return stop
}

func TestFeedConsumerFansOutAndCommits(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	_, err := env.reg.Follow.Create(ctx, alice, "bob")
	require.NoError(t, err)

	reader := &fakeReader{queue: []fetchResult{
		{err: errors.New("broker unavailable")},
		{msg: kafka.Message{Offset: 1, Value: []byte("not json")}},
		{msg: eventMessage(t, 2, postEvent{PostID: 42, AuthorID: bob.ID, PubDate: time.Now().UnixMilli()})},
	}}
	startConsumer(t, env, reader)

	require.Eventually(t, func() bool { return len(reader.commits()) == 2 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []int64{1, 2}, reader.commits())

	members, err := env.rdb.ZRange(ctx, feedKey(alice.ID), 0, -1).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{"42"}, members)
}

func TestFeedConsumerHoldsFailedMessage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	_, err := env.reg.Follow.Create(ctx, alice, "bob")
	require.NoError(t, err)

	env.mr.SetError("redis is down")
	now := time.Now().UnixMilli()
	reader := &fakeReader{queue: []fetchResult{
		{msg: eventMessage(t, 7, postEvent{PostID: 7, AuthorID: bob.ID, PubDate: now})},
		{msg: eventMessage(t, 8, postEvent{PostID: 8, AuthorID: bob.ID, PubDate: now + 1})},
	}}
	startConsumer(t, env, reader)

	// without a writer to requeue on, the failing message is retried, not skipped
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, reader.commits())

	env.mr.SetError("")
	require.Eventually(t, func() bool { return len(reader.commits()) == 2 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []int64{7, 8}, reader.commits())

	members, err := env.rdb.ZRevRange(ctx, feedKey(alice.ID), 0, -1).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{"8", "7"}, members)
}

func TestFeedConsumerStopsWhileHolding(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	_, err := env.reg.Follow.Create(context.Background(), alice, "bob")
	require.NoError(t, err)

	env.mr.SetError("redis is down")
	reader := &fakeReader{queue: []fetchResult{
		{msg: eventMessage(t, 3, postEvent{PostID: 3, AuthorID: bob.ID, PubDate: time.Now().UnixMilli()})},
	}}
	stop := startConsumer(t, env, reader)
	time.Sleep(20 * time.Millisecond)
	stop()
	assert.Empty(t, reader.commits())
}

func TestRetryPolicyBackoff(t *testing.T) {
	p := retryPolicy{baseBackoff: 100 * time.Millisecond, maxBackoff: time.Second}
	assert.Equal(t, 100*time.Millisecond, p.backoff(0))
	assert.Equal(t, 400*time.Millisecond, p.backoff(2))
	assert.Equal(t, time.Second, p.backoff(10))
	assert.Equal(t, time.Second, p.backoff(70))
}
