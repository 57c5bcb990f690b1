package service

import (
	"context"
	"net/http"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"yatube-backend/internal/dto"
	"yatube-backend/internal/model"
	"yatube-backend/internal/observability"
	"yatube-backend/internal/policy"
	"yatube-backend/internal/utils"
)

// CommentService handles comments nested under a post.
type CommentService struct {
	db      *gorm.DB
	posts   *PostService
	metrics *observability.APIMetrics
	log     *zap.Logger
}

func NewCommentService(db *gorm.DB, posts *PostService, metrics *observability.APIMetrics, log *zap.Logger) *CommentService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CommentService{db: db, posts: posts, metrics: metrics, log: log}
}

// List returns the post's comments. ErrNotFound when the post is missing.
func (s *CommentService) List(ctx context.Context, postID int64, lo utils.LimitOffset) ([]model.Comment, int64, error) {
	if _, err := s.posts.Get(ctx, postID); err != nil {
		return nil, 0, err
	}
	var total int64
	if err := s.db.WithContext(ctx).Model(&model.Comment{}).Where("post_id = ?", postID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query := s.db.WithContext(ctx).Preload("Author").Where("post_id = ?", postID).Order("id ASC")
	if lo.Paged {
		query = query.Offset(lo.Offset).Limit(lo.Limit)
	}
	comments := make([]model.Comment, 0)
	err := query.Find(&comments).Error
	return comments, total, err
}

// Get loads a comment only if it belongs to postID.
func (s *CommentService) Get(ctx context.Context, postID, id int64) (*model.Comment, error) {
	var comment model.Comment
	err := s.db.WithContext(ctx).
		Preload("Author").
		Where("post_id = ?", postID).
		First(&comment, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &comment, nil
}

// Create attaches a comment to the post in the URL; the author is the requester.
func (s *CommentService) Create(ctx context.Context, requester *dto.LoginUser, postID int64, form dto.CommentForm) (*model.Comment, error) {
	if _, err := s.posts.Get(ctx, postID); err != nil {
		return nil, err
	}
	comment := &model.Comment{PostID: postID, AuthorID: requester.ID, Text: form.Text}
	if err := s.db.WithContext(ctx).Omit("Author", "Post").Create(comment).Error; err != nil {
		return nil, err
	}
	comment.Author = model.User{ID: requester.ID, Username: requester.Username}
	return comment, nil
}

func (s *CommentService) Update(ctx context.Context, requester *dto.LoginUser, postID, id int64, form dto.CommentForm) (*model.Comment, error) {
	return s.mutate(ctx, requester, http.MethodPut, postID, id, &form.Text)
}

func (s *CommentService) Patch(ctx context.Context, requester *dto.LoginUser, postID, id int64, patch dto.CommentPatch) (*model.Comment, error) {
	return s.mutate(ctx, requester, http.MethodPatch, postID, id, patch.Text)
}

func (s *CommentService) Delete(ctx context.Context, requester *dto.LoginUser, postID, id int64) error {
	comment, err := s.Get(ctx, postID, id)
	if err != nil {
		return err
	}
	if err := s.authorize(http.MethodDelete, requester, comment); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(&model.Comment{}, comment.ID).Error
}

// CheckAccess reports whether requester may apply method to the comment
// without changing anything.
func (s *CommentService) CheckAccess(ctx context.Context, requester *dto.LoginUser, method string, postID, id int64) error {
	comment, err := s.Get(ctx, postID, id)
	if err != nil {
		return err
	}
	return s.authorize(method, requester, comment)
}

func (s *CommentService) mutate(ctx context.Context, requester *dto.LoginUser, method string, postID, id int64, text *string) (*model.Comment, error) {
	comment, err := s.Get(ctx, postID, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(method, requester, comment); err != nil {
		return nil, err
	}
	if text != nil && *text == "" {
		return nil, policy.NewValidationError("text", "This field may not be blank.")
	}
	if text != nil {
		if err := s.db.WithContext(ctx).Model(&model.Comment{ID: comment.ID}).Update("text", *text).Error; err != nil {
			return nil, err
		}
		comment.Text = *text
	}
	return comment, nil
}

func (s *CommentService) authorize(method string, requester *dto.LoginUser, comment *model.Comment) error {
	if err := checkOwner(method, requester, comment); err != nil {
		s.metrics.ObserveAccessDenied("comment", method)
		s.log.Info("comment mutation denied",
			zap.String("method", method),
			zap.Int64("commentId", comment.ID),
			zap.Int64("authorId", comment.AuthorID),
			zap.Int64("requesterId", requesterID(requester)),
		)
		return err
	}
	return nil
}
