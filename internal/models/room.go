package models

import "time"

// RoomType defines the visibility of a room.
type RoomType string

const (
	// RoomTypePublic indicates a room any authenticated user can view.
	RoomTypePublic RoomType = "public"
	// RoomTypePrivate indicates a room gated by membership.
	RoomTypePrivate RoomType = "private"
)

// AccessStatus is the outcome of an access decision for a (room, user) pair.
type AccessStatus string

const (
	// AccessGranted means the requester may view the room.
	AccessGranted AccessStatus = "granted"
	// AccessRequested means the requester has a pending access request.
	AccessRequested AccessStatus = "requested"
	// AccessDenied means the requester is neither a member nor a pending requester.
	AccessDenied AccessStatus = "denied"
)

// Room represents a student room. Room names are unique case-insensitively.
type Room struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatorID   uint      `gorm:"not null;index" json:"creator_id"`
	Creator     *User     `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Name        string    `gorm:"size:120;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Type        RoomType  `gorm:"type:varchar(20);not null;default:'public'" json:"type"`
	ImageURL    string    `gorm:"type:text" json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Room) TableName() string {
	return "rooms"
}

// IsPrivate reports whether access to the room is gated by membership.
func (r *Room) IsPrivate() bool {
	return r.Type == RoomTypePrivate
}
