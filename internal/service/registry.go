package service

import (
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"yatube-backend/internal/config"
	"yatube-backend/internal/observability"
)

// Registry groups every service for injection into handlers.
type Registry struct {
	User    *UserService
	Token   *TokenService
	Group   *GroupService
	Post    *PostService
	Comment *CommentService
	Follow  *FollowService
	Feed    *FeedService
}

// Deps are the shared clients the services are built from. Writer and Reader
// may be nil when kafka is disabled; Metrics may be nil when metrics are off.
type Deps struct {
	DB      *gorm.DB
	Redis   *redis.Client
	Writer  *kafka.Writer
	Reader  *kafka.Reader
	JWT     config.JWTConfig
	App     config.AppConfig
	Metrics *observability.APIMetrics
	Log     *zap.Logger
}

// NewRegistry wires the services together.
func NewRegistry(d Deps) *Registry {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	users := NewUserService(d.DB)
	groups := NewGroupService(d.DB, d.Redis, d.App.GroupCacheTTL, log.Named("group"))
	follows := NewFollowService(d.DB, users, d.Metrics, log.Named("follow"))
	feed := NewFeedService(d.Redis, follows, d.Writer, d.Reader, d.App.FeedMaxLength, d.Metrics, log.Named("feed"))
	posts := NewPostService(d.DB, groups, feed, d.Metrics, log.Named("post"))
	feed.posts = posts
	follows.SetObserver(feed)

	return &Registry{
		User:    users,
		Token:   NewTokenService(users, d.JWT),
		Group:   groups,
		Post:    posts,
		Comment: NewCommentService(d.DB, posts, d.Metrics, log.Named("comment")),
		Follow:  follows,
		Feed:    feed,
	}
}
