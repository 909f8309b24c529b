package models

import "gorm.io/gorm"

// Thread types.
const (
	ThreadPersonal = "personal"
	ThreadGroup    = "group"
)

// MessageThread is one conversation. Personal threads hold exactly two
// participants and are unique per user pair; group threads are named.
type MessageThread struct {
	gorm.Model
	Name         string `json:"name"`
	Type         string `json:"type"`
	CreatedByID  uint   `json:"createdById"`
	CreatedBy    User   `json:"createdBy" gorm:"foreignKey:CreatedByID"`
	Participants []User `json:"participants" gorm:"many2many:thread_participants;"`
}

// ThreadParticipant is the join table behind MessageThread.Participants.
type ThreadParticipant struct {
	ThreadID uint   `json:"threadId" gorm:"primaryKey;column:message_thread_id"`
	UserID   uint   `json:"userId" gorm:"primaryKey;column:user_id"`
	Role     string `json:"role"` // 'member', 'admin'
}

// TableName keeps the join table name GORM derives for the many2many
// relation so both mappings hit the same rows.
func (ThreadParticipant) TableName() string { return "thread_participants" }

// Message is one item in a thread. ClientID is generated by the sender;
// the unique index makes resends of the same optimistic send idempotent.
// Sends without a client id store NULL so they never collide on it.
type Message struct {
	gorm.Model
	ThreadID uint    `json:"threadId" gorm:"not null;index"`
	UserID   uint    `json:"userId"`
	User     User    `json:"user" gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	ClientID *string `json:"clientId,omitempty" gorm:"type:varchar(64);uniqueIndex"`
	Type     string `json:"type" gorm:"type:varchar(20);not null;default:'text'"`
	Content  string `json:"content"`
	FileURL  string `json:"fileUrl,omitempty" gorm:"type:varchar(255)"`
	FileName string `json:"fileName,omitempty" gorm:"type:varchar(255)"`
	FileSize int64  `json:"fileSize,omitempty"`
}

// MessageReadStatus tracks the last message a user has read in a thread.
type MessageReadStatus struct {
	ThreadID          uint `json:"threadId" gorm:"primaryKey"`
	UserID            uint `json:"userId" gorm:"primaryKey"`
	LastReadMessageID uint `json:"lastReadMessageId"`
}
