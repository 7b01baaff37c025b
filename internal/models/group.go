package models

// Group is a topical community a post can be filed under.
type Group struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:200;not null" json:"title"`
	Slug        string `gorm:"size:200;uniqueIndex;not null" json:"slug"`
	Description string `gorm:"type:text;not null;default:''" json:"description"`
}

// TableName keeps clear of the GROUPS keyword.
func (Group) TableName() string {
	return "post_groups"
}

func (g Group) String() string {
	return g.Title
}
