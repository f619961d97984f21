package storage

import (
	"time"

	"gorm.io/datatypes"
)

// User is a registered account. Passwords are stored as bcrypt hashes.
type User struct {
	ID        uint   `gorm:"primarykey"`
	Username  string `gorm:"uniqueIndex;size:64;not null"`
	Password  string `gorm:"size:128;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserState tracks per-user pipeline artifacts: the most recent image
// kept for follow-up questions, the current response audio, and rolling
// usage counters.
type UserState struct {
	ID                uint   `gorm:"primarykey"`
	UserID            uint   `gorm:"uniqueIndex;not null"`
	LastImagePath     string `gorm:"size:512"`
	ResponseAudioPath string `gorm:"size:512"`
	LastTranscript    string
	LastResponse      string
	Counters          datatypes.JSON
	UpdatedAt         time.Time
}
