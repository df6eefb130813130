package domain

import "time"

// Board is a user's pixel canvas. Its grid size is fixed at creation.
type Board struct {
	ID         uint      `gorm:"primaryKey"`
	OwnerID    uint      `gorm:"index;not null"`      // User.ID of the creator
	Name       string    `gorm:"size:100;not null"`
	GridSize   int       `gorm:"not null;default:64"` // side length N
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	LastActive time.Time `gorm:"index"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

// OwnedBy reports whether userID created the board.
func (b *Board) OwnedBy(userID uint) bool {
	return b != nil && b.OwnerID == userID
}
