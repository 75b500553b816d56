package models

import "time"

// User is a person known by their Telegram id. Empty strings stand for
// values that are not set yet.
type User struct {
	TgID       int64
	Username   string
	FullName   string
	Department string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ProfileComplete reports whether the user may post offers.
func (u *User) ProfileComplete() bool {
	return u.FullName != "" && u.Department != ""
}

// ProfileResponse is the public view of a user
// @Description Профиль пользователя
type ProfileResponse struct {
	TgID       int64   `json:"tg_id" example:"123456789"`
	Username   *string `json:"username" example:"johndoe"`
	FullName   *string `json:"full_name" example:"John Doe"`
	Department *string `json:"department" example:"VIP CALLS"`
}

// ProfileRequest updates name and department
// @Description Изменение профиля
type ProfileRequest struct {
	FullName   string `json:"full_name" binding:"required" example:"John Doe"`
	Department string `json:"department" binding:"required" example:"VIP CALLS"`
}

// AuthRequest carries init-data in the body
type AuthRequest struct {
	InitData string `json:"initData" binding:"required"`
}
