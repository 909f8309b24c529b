package models

import "gorm.io/gorm"

// Announcement audiences.
const (
	AudienceAll       = "all"
	AudienceTeachers  = "teachers"
	AudienceGuardians = "guardians"
)

// AnnouncementFile is one attachment on an announcement.
type AnnouncementFile struct {
	gorm.Model
	AnnouncementID uint   `json:"announcement_id"`
	FileURL        string `json:"file_url"`
	FileType       string `json:"file_type"` // 'image', 'video', 'file'
}

// Announcement is a post in the school feed: a plain message or a poll,
// scoped to an audience (everyone, teachers, guardians).
type Announcement struct {
	gorm.Model
	AuthorID     uint   `json:"author_id"`
	Author       User   `json:"author" gorm:"foreignKey:AuthorID"`
	Title        string `json:"title" gorm:"size:200"`
	Content      string `json:"content" gorm:"type:text"`
	Type         string `json:"type" gorm:"type:varchar(50);default:'message'"`
	Audience     string `json:"audience" gorm:"type:varchar(20);default:'all'"`
	PollQuestion string `json:"poll_question,omitempty"`

	Files       []AnnouncementFile `json:"files,omitempty" gorm:"foreignKey:AnnouncementID;constraint:OnDelete:CASCADE;"`
	PollOptions []PollOption       `json:"poll_options,omitempty" gorm:"foreignKey:AnnouncementID;constraint:OnDelete:CASCADE;"`
}

type PollOption struct {
	gorm.Model
	AnnouncementID uint       `json:"announcement_id"`
	Text           string     `json:"text"`
	Votes          []PollVote `json:"votes" gorm:"foreignKey:PollOptionID;constraint:OnDelete:CASCADE;"`
}

type PollVote struct {
	gorm.Model
	PollOptionID uint `json:"poll_option_id"`
	UserID       uint `json:"user_id"`
}
