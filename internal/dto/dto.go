package dto

import "time"

// PostDTO is the wire form of a post. Author is the username.
type PostDTO struct {
	ID      int64     `json:"id"`
	Text    string    `json:"text"`
	PubDate time.Time `json:"pub_date"`
	Author  string    `json:"author"`
	Image   *string   `json:"image"`
	Group   *int64    `json:"group"`
}

// PostForm is accepted on create and full update. Author and pub_date are
// never read from the client.
// Absent image and group are left as they are on update; null clears them.
type PostForm struct {
	Text  string           `json:"text" binding:"required"`
	Image Optional[string] `json:"image"`
	Group Optional[int64]  `json:"group"`
}

// PostPatch is accepted on partial update; absent fields are left alone.
type PostPatch struct {
	Text  *string          `json:"text"`
	Image Optional[string] `json:"image"`
	Group Optional[int64]  `json:"group"`
}

// CommentDTO is the wire form of a comment.
type CommentDTO struct {
	ID      int64     `json:"id"`
	Author  string    `json:"author"`
	Post    int64     `json:"post"`
	Text    string    `json:"text"`
	Created time.Time `json:"created"`
}

type CommentForm struct {
	Text string `json:"text" binding:"required"`
}

type CommentPatch struct {
	Text *string `json:"text"`
}

// FollowDTO is the wire form of a follow. User is always the requester.
type FollowDTO struct {
	User      string `json:"user"`
	Following string `json:"following"`
}

// FollowForm carries the followee username. Any "user" field sent by the
// client is ignored.
type FollowForm struct {
	Following string `json:"following" binding:"required"`
}

type RegisterForm struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type TokenForm struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

type RefreshForm struct {
	Refresh string `json:"refresh" binding:"required"`
}

type VerifyForm struct {
	Token string `json:"token" binding:"required"`
}
