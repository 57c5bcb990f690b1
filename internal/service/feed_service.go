package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"yatube-backend/internal/model"
	"yatube-backend/internal/observability"
	"yatube-backend/internal/utils"
)

const followBackfillSize = 20

// messageReader is the consumer-group side of *kafka.Reader that Run needs.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// retryPolicy bounds the in-place fan-out retries of one message. After
// attempts failures the event is requeued on the topic; until that succeeds
// the message is held and its offset is never committed.
type retryPolicy struct {
	attempts     int
	baseBackoff  time.Duration
	maxBackoff   time.Duration
	fetchBackoff time.Duration
}

var defaultRetryPolicy = retryPolicy{
	attempts:     5,
	baseBackoff:  200 * time.Millisecond,
	maxBackoff:   5 * time.Second,
	fetchBackoff: time.Second,
}

func (p retryPolicy) backoff(attempt int) time.Duration {
	d := p.baseBackoff << uint(attempt)
	if d <= 0 || d > p.maxBackoff {
		return p.maxBackoff
	}
	return d
}

// postEvent is the kafka payload announcing a new post.
type postEvent struct {
	PostID   int64 `json:"postId"`
	AuthorID int64 `json:"authorId"`
	PubDate  int64 `json:"pubDate"`
	Requeued int   `json:"requeued,omitempty"`
}

// FeedService keeps one redis sorted set per user holding the ids of posts by
// the authors they follow, scored by publication time. New posts reach the
// inboxes through kafka when a writer is configured, inline otherwise.
type FeedService struct {
	rdb     *redis.Client
	follows *FollowService
	posts   *PostService
	writer  *kafka.Writer
	reader  messageReader
	retry   retryPolicy
	maxLen  int64
	metrics *observability.APIMetrics
	log     *zap.Logger
}

func NewFeedService(
	rdb *redis.Client,
	follows *FollowService,
	writer *kafka.Writer,
	reader *kafka.Reader,
	maxLen int64,
	metrics *observability.APIMetrics,
	log *zap.Logger,
) *FeedService {
	if log == nil {
		log = zap.NewNop()
	}
	if maxLen <= 0 {
		maxLen = 1000
	}
	s := &FeedService{
		rdb:     rdb,
		follows: follows,
		writer:  writer,
		retry:   defaultRetryPolicy,
		maxLen:  maxLen,
		metrics: metrics,
		log:     log,
	}
	// a nil *kafka.Reader must stay a nil interface
	if reader != nil {
		s.reader = reader
	}
	return s
}

// PublishPostCreated implements PostPublisher. Publishing failures fall back
// to an inline fan-out so the post still reaches follower feeds.
func (s *FeedService) PublishPostCreated(ctx context.Context, post *model.Post) {
	ev := postEvent{PostID: post.ID, AuthorID: post.AuthorID, PubDate: post.PubDate.UnixMilli()}
	if s.writer == nil {
		s.fanOutLogged(ctx, ev)
		return
	}
	if err := s.publish(ctx, ev); err != nil {
		s.log.Error("publish post event failed, fanning out inline", zap.Error(err), zap.Int64("postId", ev.PostID))
		s.fanOutLogged(ctx, ev)
	}
}

// FollowCreated implements FollowObserver by copying the followee's recent
// posts into the new follower's feed.
func (s *FeedService) FollowCreated(ctx context.Context, follow *model.Follow) {
	if s.posts == nil {
		return
	}
	recent, err := s.posts.RecentByAuthor(ctx, follow.FollowingID, followBackfillSize)
	if err != nil {
		s.log.Warn("feed backfill query failed", zap.Error(err), zap.Int64("userId", follow.UserID))
		return
	}
	if len(recent) == 0 {
		return
	}
	key := feedKey(follow.UserID)
	_, err = s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, p := range recent {
			pipe.ZAdd(ctx, key, redis.Z{Score: float64(p.PubDate.UnixMilli()), Member: strconv.FormatInt(p.ID, 10)})
		}
		pipe.ZRemRangeByRank(ctx, key, 0, -(s.maxLen + 1))
		return nil
	})
	if err != nil {
		s.log.Warn("feed backfill failed", zap.Error(err), zap.Int64("userId", follow.UserID))
	}
}

// Read returns a page of the user's feed, newest first, and the feed size.
func (s *FeedService) Read(ctx context.Context, userID int64, lo utils.LimitOffset) ([]model.Post, int64, error) {
	key := feedKey(userID)
	total, err := s.rdb.ZCard(ctx, key).Result()
	if err != nil {
		return nil, 0, err
	}
	limit := lo.Limit
	if !lo.Paged {
		limit = utils.DEFAULT_PAGE_LIMIT
	}
	start := int64(lo.Offset)
	members, err := s.rdb.ZRevRange(ctx, key, start, start+int64(limit)-1).Result()
	if err != nil {
		return nil, 0, err
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	posts, err := s.posts.ByIDs(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	if len(posts) < len(ids) {
		total -= s.dropStale(ctx, key, ids, posts)
	}
	return posts, total, nil
}

// Run consumes post events until ctx is cancelled. It is a no-op without a reader.
// An offset is committed only once its post reached every inbox or was
// requeued, so a failed fan-out is never skipped by a later commit.
func (s *FeedService) Run(ctx context.Context) {
	if s.reader == nil {
		return
	}
	s.log.Info("feed consumer started")
	for {
		msg, err := s.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				s.log.Info("feed consumer stopped")
				return
			}
			s.log.Error("feed fetch message error", zap.Error(err))
			if !sleepCtx(ctx, s.retry.fetchBackoff) {
				s.log.Info("feed consumer stopped")
				return
			}
			continue
		}
		if !s.consume(ctx, msg) {
			s.log.Info("feed consumer stopped")
			return
		}
		if err := s.reader.CommitMessages(ctx, msg); err != nil {
			s.log.Error("feed commit error", zap.Error(err), zap.Int64("offset", msg.Offset))
		}
	}
}

// consume handles one message and reports whether its offset may be
// committed. It returns false only when ctx is cancelled first.
func (s *FeedService) consume(ctx context.Context, msg kafka.Message) bool {
	topic := msg.Topic
	if topic == "" {
		topic = "unknown"
	}
	start := time.Now()
	var ev postEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		// poison message: commit and move on
		s.log.Error("feed parse message error", zap.Error(err), zap.Int64("offset", msg.Offset))
		s.metrics.ObserveKafkaConsume(topic, "parse_error", time.Since(start))
		return true
	}

	msgCtx := observability.ExtractKafkaContext(ctx, msg.Headers)
	msgCtx, span := s.startSpan(msgCtx, "kafka.consume", topic, trace.SpanKindConsumer)
	defer span.End()

	for round := 0; ; round++ {
		var err error
		for attempt := 0; attempt < s.retry.attempts; attempt++ {
			if err = s.fanOut(msgCtx, ev); err == nil {
				s.metrics.ObserveKafkaConsume(topic, "ok", time.Since(start))
				return true
			}
			s.log.Warn("feed fan-out failed",
				zap.Error(err),
				zap.Int64("postId", ev.PostID),
				zap.Int("attempt", attempt+1),
			)
			if !sleepCtx(ctx, s.retry.backoff(attempt)) {
				return false
			}
		}
		span.RecordError(err)
		reqErr := s.requeue(msgCtx, ev)
		if reqErr == nil {
			s.metrics.ObserveKafkaConsume(topic, "retry", time.Since(start))
			s.log.Info("feed fan-out requeued", zap.Int64("postId", ev.PostID), zap.Int("requeued", ev.Requeued+1))
			return true
		}
		s.log.Error("feed fan-out requeue failed, holding message",
			zap.Error(reqErr),
			zap.Int64("postId", ev.PostID),
			zap.Int64("offset", msg.Offset),
			zap.Int("round", round+1),
		)
		s.metrics.ObserveKafkaConsume(topic, "error", time.Since(start))
		span.SetStatus(codes.Error, err.Error())
		if !sleepCtx(ctx, s.retry.maxBackoff) {
			return false
		}
	}
}

// requeue republishes ev to the post topic so the offset can move on.
func (s *FeedService) requeue(ctx context.Context, ev postEvent) error {
	if s.writer == nil {
		return errors.New("no kafka writer to requeue on")
	}
	ev.Requeued++
	return s.publish(ctx, ev)
}

// sleepCtx waits for d and reports false when ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// fanOut pushes one post into every follower's inbox and trims each inbox to maxLen.
func (s *FeedService) fanOut(ctx context.Context, ev postEvent) error {
	start := time.Now()
	followers, err := s.follows.FollowerIDs(ctx, ev.AuthorID)
	if err != nil {
		s.metrics.ObserveFanout("error", time.Since(start))
		return err
	}
	if len(followers) == 0 {
		s.metrics.ObserveFanout("empty", time.Since(start))
		return nil
	}
	member := strconv.FormatInt(ev.PostID, 10)
	_, err = s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, followerID := range followers {
			key := feedKey(followerID)
			pipe.ZAdd(ctx, key, redis.Z{Score: float64(ev.PubDate), Member: member})
			pipe.ZRemRangeByRank(ctx, key, 0, -(s.maxLen + 1))
		}
		return nil
	})
	if err != nil {
		s.metrics.ObserveFanout("error", time.Since(start))
		return err
	}
	s.metrics.ObserveFanout("ok", time.Since(start))
	s.log.Debug("post fanned out", zap.Int64("postId", ev.PostID), zap.Int("followers", len(followers)))
	return nil
}

func (s *FeedService) publish(ctx context.Context, ev postEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	ctx, span := s.startSpan(ctx, "kafka.produce", s.writer.Topic, trace.SpanKindProducer)
	defer span.End()

	msg := kafka.Message{Key: []byte(strconv.FormatInt(ev.AuthorID, 10)), Value: payload}
	observability.InjectKafkaHeaders(ctx, &msg.Headers)
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.metrics.ObserveKafkaPublish(s.writer.Topic, "error")
		return err
	}
	s.metrics.ObserveKafkaPublish(s.writer.Topic, "ok")
	return nil
}

func (s *FeedService) fanOutLogged(ctx context.Context, ev postEvent) {
	if err := s.fanOut(ctx, ev); err != nil {
		s.log.Error("inline fan-out failed", zap.Error(err), zap.Int64("postId", ev.PostID))
	}
}

// dropStale removes ids of deleted posts from the inbox and returns how many
// it removed.
func (s *FeedService) dropStale(ctx context.Context, key string, ids []int64, found []model.Post) int64 {
	present := make(map[int64]struct{}, len(found))
	for _, p := range found {
		present[p.ID] = struct{}{}
	}
	var stale []interface{}
	for _, id := range ids {
		if _, ok := present[id]; !ok {
			stale = append(stale, strconv.FormatInt(id, 10))
		}
	}
	if len(stale) == 0 {
		return 0
	}
	removed, err := s.rdb.ZRem(ctx, key, stale...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		s.log.Warn("feed cleanup failed", zap.Error(err))
		// the ids are gone from the page either way
		return int64(len(stale))
	}
	return removed
}

func (s *FeedService) startSpan(ctx context.Context, name, topic string, kind trace.SpanKind) (context.Context, trace.Span) {
	if topic == "" {
		topic = "unknown"
	}
	return observability.Tracer().Start(ctx, name,
		trace.WithSpanKind(kind),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", topic),
		),
	)
}

func feedKey(userID int64) string {
	return utils.FEED_KEY + strconv.FormatInt(userID, 10)
}
