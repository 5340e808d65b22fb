package models

// ContentCard is a piece of content posted to the global feed or into a room.
// Cards are immutable after creation.
type ContentCard struct {
	ID        uint  `gorm:"primaryKey" json:"id"`
	CreatorID uint  `gorm:"not null;index" json:"creator_id"`
	Creator   *User `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	// CreatorUsername is cached at creation time so feeds render without a join.
	CreatorUsername string `gorm:"size:30" json:"creator_username"`
	Title           string `gorm:"size:200;not null" json:"title"`
	Content         string `gorm:"type:text" json:"content"`
	// HasImage is true iff an image object keyed by this card's ID exists in
	// the content-images bucket.
	HasImage bool `gorm:"not null;default:false" json:"has_image"`
	// Timestamp is the creation time in unix seconds.
	Timestamp int64 `gorm:"not null" json:"timestamp"`
	// RoomID is nil for cards posted to the global/dashboard feed.
	RoomID *uint `gorm:"index" json:"room_id"`
	Room   *Room `gorm:"foreignKey:RoomID" json:"room,omitempty"`
}

// TableName specifies the table name for GORM.
func (ContentCard) TableName() string {
	return "content_cards"
}
