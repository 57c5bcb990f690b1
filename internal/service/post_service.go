package service

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"yatube-backend/internal/dto"
	"yatube-backend/internal/model"
	"yatube-backend/internal/observability"
	"yatube-backend/internal/policy"
	"yatube-backend/internal/utils"
)

// PostPublisher is told about every newly created post.
type PostPublisher interface {
	PublishPostCreated(ctx context.Context, post *model.Post)
}

// PostService handles post CRUD. Every mutation runs the owner check first.
type PostService struct {
	db      *gorm.DB
	groups  *GroupService
	events  PostPublisher
	metrics *observability.APIMetrics
	log     *zap.Logger
}

func NewPostService(db *gorm.DB, groups *GroupService, events PostPublisher, metrics *observability.APIMetrics, log *zap.Logger) *PostService {
	if log == nil {
		log = zap.NewNop()
	}
	return &PostService{db: db, groups: groups, events: events, metrics: metrics, log: log}
}

// List returns a page of posts and the total count.
func (s *PostService) List(ctx context.Context, lo utils.LimitOffset) ([]model.Post, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&model.Post{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query := s.db.WithContext(ctx).Preload("Author").Order("id ASC")
	if lo.Paged {
		query = query.Offset(lo.Offset).Limit(lo.Limit)
	}
	posts := make([]model.Post, 0)
	err := query.Find(&posts).Error
	return posts, total, err
}

func (s *PostService) Get(ctx context.Context, id int64) (*model.Post, error) {
	var post model.Post
	if err := s.db.WithContext(ctx).Preload("Author").First(&post, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &post, nil
}

// ByIDs loads posts preserving the order of ids; missing ids are skipped.
func (s *PostService) ByIDs(ctx context.Context, ids []int64) ([]model.Post, error) {
	if len(ids) == 0 {
		return []model.Post{}, nil
	}
	var found []model.Post
	if err := s.db.WithContext(ctx).Preload("Author").Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}
	byID := make(map[int64]model.Post, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	posts := make([]model.Post, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			posts = append(posts, p)
		}
	}
	return posts, nil
}

// RecentByAuthor returns up to limit of the author's newest posts.
func (s *PostService) RecentByAuthor(ctx context.Context, authorID int64, limit int) ([]model.Post, error) {
	var posts []model.Post
	err := s.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("pub_date DESC").
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

// Create stores a post authored by the requester.
func (s *PostService) Create(ctx context.Context, requester *dto.LoginUser, form dto.PostForm) (*model.Post, error) {
	if err := s.checkGroup(ctx, form.Group.Value); err != nil {
		return nil, err
	}
	post := &model.Post{
		Text:     form.Text,
		AuthorID: requester.ID,
		Image:    form.Image.Value,
		GroupID:  form.Group.Value,
	}
	if err := s.db.WithContext(ctx).Omit("Author", "Group").Create(post).Error; err != nil {
		return nil, err
	}
	post.Author = model.User{ID: requester.ID, Username: requester.Username}
	if s.events != nil {
		s.events.PublishPostCreated(ctx, post)
	}
	return post, nil
}

// Update replaces the text, and image and group when they were sent.
func (s *PostService) Update(ctx context.Context, requester *dto.LoginUser, id int64, form dto.PostForm) (*model.Post, error) {
	return s.mutate(ctx, requester, http.MethodPut, id, func(post *model.Post) (map[string]interface{}, error) {
		changes := map[string]interface{}{"text": form.Text}
		if err := s.optionalChanges(ctx, changes, form.Image, form.Group); err != nil {
			return nil, err
		}
		return changes, nil
	})
}

// Patch changes only the fields present in patch.
func (s *PostService) Patch(ctx context.Context, requester *dto.LoginUser, id int64, patch dto.PostPatch) (*model.Post, error) {
	return s.mutate(ctx, requester, http.MethodPatch, id, func(post *model.Post) (map[string]interface{}, error) {
		changes := map[string]interface{}{}
		if patch.Text != nil {
			if *patch.Text == "" {
				return nil, policy.NewValidationError("text", "This field may not be blank.")
			}
			changes["text"] = *patch.Text
		}
		if err := s.optionalChanges(ctx, changes, patch.Image, patch.Group); err != nil {
			return nil, err
		}
		return changes, nil
	})
}

// Delete removes the post and its comments.
func (s *PostService) Delete(ctx context.Context, requester *dto.LoginUser, id int64) error {
	post, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(http.MethodDelete, requester, post); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Post{}, post.ID).Error
	})
}

// CheckAccess reports whether requester may apply method to post id without
// changing anything. Handlers call it before decoding a request body.
func (s *PostService) CheckAccess(ctx context.Context, requester *dto.LoginUser, method string, id int64) error {
	post, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.authorize(method, requester, post)
}

func (s *PostService) mutate(
	ctx context.Context,
	requester *dto.LoginUser,
	method string,
	id int64,
	changes func(post *model.Post) (map[string]interface{}, error),
) (*model.Post, error) {
	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(method, requester, post); err != nil {
		return nil, err
	}
	values, err := changes(post)
	if err != nil {
		return nil, err
	}
	if len(values) > 0 {
		if err := s.db.WithContext(ctx).Model(&model.Post{ID: post.ID}).Updates(values).Error; err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, id)
}

func (s *PostService) authorize(method string, requester *dto.LoginUser, post *model.Post) error {
	if err := checkOwner(method, requester, post); err != nil {
		s.metrics.ObserveAccessDenied("post", method)
		s.log.Info("post mutation denied",
			zap.String("method", method),
			zap.Int64("postId", post.ID),
			zap.Int64("authorId", post.AuthorID),
			zap.Int64("requesterId", requesterID(requester)),
		)
		return err
	}
	return nil
}

// optionalChanges adds image and group to changes when they were present in
// the request. A null value clears the column.
func (s *PostService) optionalChanges(ctx context.Context, changes map[string]interface{}, image dto.Optional[string], group dto.Optional[int64]) error {
	if image.Set {
		changes["image"] = image.Value
	}
	if group.Set {
		if err := s.checkGroup(ctx, group.Value); err != nil {
			return err
		}
		changes["group_id"] = group.Value
	}
	return nil
}

func (s *PostService) checkGroup(ctx context.Context, groupID *int64) error {
	if groupID == nil {
		return nil
	}
	ok, err := s.groups.Exists(ctx, *groupID)
	if err != nil {
		return err
	}
	if !ok {
		return policy.NewValidationError("group", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", *groupID))
	}
	return nil
}

// checkOwner applies the access rule for a possibly anonymous requester.
func checkOwner(method string, requester *dto.LoginUser, obj policy.Owned) error {
	if requester == nil {
		return policy.Check(method, 0, false, obj)
	}
	return policy.Check(method, requester.ID, requester.IsStaff, obj)
}

func requesterID(requester *dto.LoginUser) int64 {
	if requester == nil {
		return 0
	}
	return requester.ID
}
