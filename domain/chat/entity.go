package chat

import "time"

// Identity is the authenticated user behind a live connection.
type Identity struct {
	UserID   int64  `json:"id"`
	Username string `json:"username"`
}

// OnlineUser is one entry of the onlineUsers broadcast.
type OnlineUser struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
}

// User represents a registered account.
type User struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null;size:50" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName returns the table name for the User entity.
func (User) TableName() string {
	return "users"
}

// Channel represents a named chat channel.
type Channel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null;size:100" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the table name for the Channel entity.
func (Channel) TableName() string {
	return "channels"
}

// Message represents a persisted chat message.
type Message struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Content   string    `gorm:"not null" json:"content"`
	UserID    int64     `gorm:"not null;index" json:"user_id"`
	ChannelID int64     `gorm:"not null;index:idx_messages_channel_created,priority:1" json:"channel_id"`
	CreatedAt time.Time `gorm:"index:idx_messages_channel_created,priority:2" json:"created_at"`

	Channel *Channel `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for the Message entity.
func (Message) TableName() string {
	return "messages"
}

// MessageView is a message joined with its sender's username.
type MessageView struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	Username  string    `json:"username"`
	ChannelID int64     `json:"channel_id"`
	CreatedAt time.Time `json:"created_at"`
}
