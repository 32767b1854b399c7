package domain

import "time"

type UserID int64

type User struct {
	ID           UserID
	Email        string
	Nickname     string
	ProfileImage *string
	PasswordHash string
	Roles        []string
	CreatedAt    time.Time
}

// Sender is the public projection of a user attached to outbound events.
type Sender struct {
	ID           UserID  `json:"id"`
	Nickname     string  `json:"nickname"`
	ProfileImage *string `json:"profileImage"`
}

func (u User) Sender() Sender {
	return Sender{ID: u.ID, Nickname: u.Nickname, ProfileImage: u.ProfileImage}
}
