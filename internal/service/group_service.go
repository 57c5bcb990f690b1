package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"yatube-backend/internal/model"
	"yatube-backend/internal/policy"
	"yatube-backend/internal/utils"
)

// GroupService serves the read-only group catalogue. The full list is cached
// in redis; search filters the cached list.
type GroupService struct {
	db  *gorm.DB
	rdb *redis.Client
	ttl time.Duration
	log *zap.Logger
}

func NewGroupService(db *gorm.DB, rdb *redis.Client, ttl time.Duration, log *zap.Logger) *GroupService {
	if log == nil {
		log = zap.NewNop()
	}
	return &GroupService{db: db, rdb: rdb, ttl: ttl, log: log}
}

// List returns all groups whose title contains search (case-insensitive).
func (s *GroupService) List(ctx context.Context, search string) ([]model.Group, error) {
	groups, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return groups, nil
	}
	filtered := make([]model.Group, 0, len(groups))
	for _, g := range groups {
		if strings.Contains(strings.ToLower(g.Title), search) {
			filtered = append(filtered, g)
		}
	}
	return filtered, nil
}

func (s *GroupService) Get(ctx context.Context, id int64) (*model.Group, error) {
	var group model.Group
	if err := s.db.WithContext(ctx).First(&group, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &group, nil
}

// Exists reports whether a group with id is present.
func (s *GroupService) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Group{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// Create adds a group and drops the cached list.
func (s *GroupService) Create(ctx context.Context, title, slug, description string) (*model.Group, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, policy.NewValidationError("title", "This field may not be blank.")
	}
	if utils.IsSlugInvalid(slug) {
		return nil, policy.NewValidationError("slug",
			`Enter a valid "slug" consisting of letters, numbers, underscores or hyphens.`)
	}
	group := &model.Group{Title: title, Slug: slug, Description: description}
	if err := s.db.WithContext(ctx).Create(group).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, policy.NewValidationError("slug", "group with this slug already exists.")
		}
		return nil, err
	}
	s.invalidate(ctx)
	return group, nil
}

func (s *GroupService) all(ctx context.Context) ([]model.Group, error) {
	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, utils.CACHE_GROUP_LIST_KEY).Bytes()
		switch {
		case err == nil:
			var groups []model.Group
			if err := json.Unmarshal(cached, &groups); err == nil {
				return groups, nil
			}
			s.log.Warn("drop corrupt group cache")
		case !errors.Is(err, redis.Nil):
			s.log.Warn("group cache read failed", zap.Error(err))
		}
	}

	groups := make([]model.Group, 0)
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&groups).Error; err != nil {
		return nil, err
	}
	if s.rdb != nil {
		if payload, err := json.Marshal(groups); err == nil {
			if err := s.rdb.Set(ctx, utils.CACHE_GROUP_LIST_KEY, payload, s.ttl).Err(); err != nil {
				s.log.Warn("group cache write failed", zap.Error(err))
			}
		}
	}
	return groups, nil
}

func (s *GroupService) invalidate(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, utils.CACHE_GROUP_LIST_KEY).Err(); err != nil {
		s.log.Warn("group cache invalidate failed", zap.Error(err))
	}
}
