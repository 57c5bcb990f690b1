package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"yatube-backend/internal/dto"
	"yatube-backend/internal/model"
	"yatube-backend/internal/observability"
	"yatube-backend/internal/policy"
)

// FollowObserver is told about every follow that was stored.
type FollowObserver interface {
	FollowCreated(ctx context.Context, follow *model.Follow)
}

// FollowService owns follow relationships. Create runs policy.ValidateFollow
// and relies on the idx_follow_pair unique index for concurrent duplicates.
type FollowService struct {
	db       *gorm.DB
	users    *UserService
	observer FollowObserver
	metrics  *observability.APIMetrics
	log      *zap.Logger
}

func NewFollowService(db *gorm.DB, users *UserService, metrics *observability.APIMetrics, log *zap.Logger) *FollowService {
	if log == nil {
		log = zap.NewNop()
	}
	return &FollowService{db: db, users: users, metrics: metrics, log: log}
}

// SetObserver wires the feed after both services exist.
func (s *FollowService) SetObserver(observer FollowObserver) {
	s.observer = observer
}

// FollowExists implements policy.FollowLookup.
func (s *FollowService) FollowExists(ctx context.Context, followerID, followeeID int64) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.Follow{}).
		Where("user_id = ? AND following_id = ?", followerID, followeeID).
		Count(&count).Error
	return count > 0, err
}

// List returns the requester's follows. search matches either username.
func (s *FollowService) List(ctx context.Context, userID int64, search string) ([]model.Follow, error) {
	query := s.db.WithContext(ctx).
		Preload("User").
		Preload("Following").
		Where("follows.user_id = ?", userID)
	if search = strings.TrimSpace(search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.
			Joins("JOIN users AS fu ON fu.id = follows.user_id").
			Joins("JOIN users AS ft ON ft.id = follows.following_id").
			Where("LOWER(fu.username) LIKE ? OR LOWER(ft.username) LIKE ?", like, like)
	}
	follows := make([]model.Follow, 0)
	err := query.Order("follows.id ASC").Find(&follows).Error
	return follows, err
}

// Create makes the requester follow the user named following. The follower
// is always the requester.
func (s *FollowService) Create(ctx context.Context, requester *dto.LoginUser, following string) (*model.Follow, error) {
	target, err := s.users.FindByUsername(ctx, following)
	if errors.Is(err, ErrNotFound) {
		s.metrics.ObserveFollow("unknown_user")
		return nil, policy.NewValidationError("following",
			fmt.Sprintf("Object with username=%s does not exist.", following))
	}
	if err != nil {
		return nil, err
	}

	follower := policy.Subject{ID: requester.ID, Username: requester.Username}
	followee := policy.Subject{ID: target.ID, Username: target.Username}
	if err := policy.ValidateFollow(ctx, s, follower, followee); err != nil {
		s.observeRejection(err, follower, followee)
		return nil, err
	}

	follow := &model.Follow{UserID: requester.ID, FollowingID: target.ID}
	if err := s.db.WithContext(ctx).Omit("User", "Following").Create(follow).Error; err != nil {
		if isDuplicateKey(err) {
			// lost a race with an identical request
			err = policy.DuplicateFollowError(target.Username)
			s.observeRejection(err, follower, followee)
			return nil, err
		}
		return nil, err
	}
	follow.User = model.User{ID: requester.ID, Username: requester.Username}
	follow.Following = *target
	s.metrics.ObserveFollow("created")
	s.log.Info("follow created", zap.Int64("userId", follow.UserID), zap.Int64("followingId", follow.FollowingID))
	if s.observer != nil {
		s.observer.FollowCreated(ctx, follow)
	}
	return follow, nil
}

// FollowerIDs returns the ids of everyone following userID.
func (s *FollowService) FollowerIDs(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	err := s.db.WithContext(ctx).
		Model(&model.Follow{}).
		Where("following_id = ?", userID).
		Pluck("user_id", &ids).Error
	return ids, err
}

func (s *FollowService) observeRejection(err error, follower, followee policy.Subject) {
	reason := "invalid"
	switch {
	case errors.Is(err, policy.ErrSelfFollow):
		reason = "self"
	case errors.Is(err, policy.ErrDuplicateFollow):
		reason = "duplicate"
	case !errors.Is(err, policy.ErrValidationFailed):
		return
	}
	s.metrics.ObserveFollow(reason)
	s.log.Info("follow rejected",
		zap.String("reason", reason),
		zap.Int64("userId", follower.ID),
		zap.Int64("followingId", followee.ID),
	)
}
