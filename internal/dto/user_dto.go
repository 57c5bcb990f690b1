package dto

// LoginUser is the authenticated principal attached to a request.
type LoginUser struct {
	ID       int64
	Username string
	IsStaff  bool
}

// UserDTO is the public user representation.
type UserDTO struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}
