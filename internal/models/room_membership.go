package models

import "time"

// RoomMembershipStatus defines the membership state of a (room, user) pair.
//
// A single status column replaces separate member/requester lists so a user
// is a member or a pending requester, never both. Transitions are guarded
// single-statement updates on this row.
type RoomMembershipStatus string

const (
	// RoomMembershipMember indicates full membership in a private room.
	RoomMembershipMember RoomMembershipStatus = "member"
	// RoomMembershipRequested indicates a pending access request.
	RoomMembershipRequested RoomMembershipStatus = "requested"
)

// RoomMembership maps users to private rooms and tracks their access state.
type RoomMembership struct {
	RoomID    uint                 `gorm:"primaryKey;autoIncrement:false" json:"room_id"`
	Room      *Room                `gorm:"foreignKey:RoomID" json:"room,omitempty"`
	UserID    uint                 `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	User      *User                `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Status    RoomMembershipStatus `gorm:"type:varchar(20);not null;default:'requested'" json:"status"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (RoomMembership) TableName() string {
	return "room_memberships"
}
