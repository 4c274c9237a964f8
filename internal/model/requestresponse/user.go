package requestresponse

import "agromind-server/internal/model"

// ErrorResponse : standard error body
type ErrorResponse struct {
	Error   string `json:"error" example:"Unauthorized"`
	Message string `json:"message" example:"invalid token"`
	Code    int    `json:"code" example:"401"`
}

// UserResponse : public view of a user
type UserResponse struct {
	ID       int64  `json:"id" example:"1"`
	Username string `json:"username" example:"alice"`
	Email    string `json:"email" example:"a@x.com"`
}

func NewUserResponse(user *model.User) UserResponse {
	return UserResponse{ID: user.ID, Username: user.Username, Email: user.Email}
}

// UpdateUserRequest : profile update, omitted fields are left unchanged
type UpdateUserRequest struct {
	Username *string `json:"username" validate:"omitempty,min=3,max=50" example:"alice2"`
	Email    *string `json:"email" validate:"omitempty,email,max=120" example:"alice2@x.com"`
}

// UpdatePasswordRequest : new password
type UpdatePasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required,min=6,max=72" example:"n3wSecret!"`
}

// UpdatePasswordResponse : successful password change
type UpdatePasswordResponse struct {
	Updated bool `json:"updated" example:"true"`
}

// DeleteUserResponse : account removed
type DeleteUserResponse struct {
	Message string `json:"message" example:"User deleted successfully"`
	UserID  int64  `json:"user_id" example:"1"`
}

// ListUsersResponse : one page of users
type ListUsersResponse struct {
	Users      []UserResponse `json:"users"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// HealthResponse : liveness check
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}
