package mapper

import (
	"yatube-backend/internal/dto"
	"yatube-backend/internal/model"
)

// ToUserDTO converts a user to its public form.
func ToUserDTO(u *model.User) *dto.UserDTO {
	if u == nil {
		return nil
	}
	return &dto.UserDTO{ID: u.ID, Username: u.Username}
}

// ToLoginUser converts a user to the request principal.
func ToLoginUser(u *model.User) *dto.LoginUser {
	if u == nil {
		return nil
	}
	return &dto.LoginUser{ID: u.ID, Username: u.Username, IsStaff: u.IsStaff}
}

// ToPostDTO expects Author to be preloaded.
func ToPostDTO(p *model.Post) dto.PostDTO {
	return dto.PostDTO{
		ID:      p.ID,
		Text:    p.Text,
		PubDate: p.PubDate,
		Author:  p.Author.Username,
		Image:   p.Image,
		Group:   p.GroupID,
	}
}

func ToPostDTOs(posts []model.Post) []dto.PostDTO {
	out := make([]dto.PostDTO, 0, len(posts))
	for i := range posts {
		out = append(out, ToPostDTO(&posts[i]))
	}
	return out
}

// ToCommentDTO expects Author to be preloaded.
func ToCommentDTO(c *model.Comment) dto.CommentDTO {
	return dto.CommentDTO{
		ID:      c.ID,
		Author:  c.Author.Username,
		Post:    c.PostID,
		Text:    c.Text,
		Created: c.Created,
	}
}

func ToCommentDTOs(comments []model.Comment) []dto.CommentDTO {
	out := make([]dto.CommentDTO, 0, len(comments))
	for i := range comments {
		out = append(out, ToCommentDTO(&comments[i]))
	}
	return out
}

// ToFollowDTO expects User and Following to be preloaded.
func ToFollowDTO(f *model.Follow) dto.FollowDTO {
	return dto.FollowDTO{User: f.User.Username, Following: f.Following.Username}
}

func ToFollowDTOs(follows []model.Follow) []dto.FollowDTO {
	out := make([]dto.FollowDTO, 0, len(follows))
	for i := range follows {
		out = append(out, ToFollowDTO(&follows[i]))
	}
	return out
}
