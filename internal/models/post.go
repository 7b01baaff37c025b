package models

import (
	"time"
)

// Post is a text entry written by an author, optionally filed under a group.
// Posts are ordered newest first.
type Post struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	Text     string    `gorm:"type:text;not null;check:chk_posts_text_not_blank,trim(text) <> ''" json:"text"`
	PubDate  time.Time `gorm:"autoCreateTime;not null;index" json:"pub_date"`
	AuthorID uint      `gorm:"not null;index" json:"author_id"`
	Author   User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	GroupID  *uint     `gorm:"index" json:"group_id,omitempty"`
	Group    *Group    `gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL" json:"group,omitempty"`
	// Image is a media-relative path such as posts/<name>.png.
	Image string `gorm:"size:255;not null;default:''" json:"image,omitempty"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int `gorm:"->;-:migration" json:"comments_count"`
}

// Excerpt returns the first n runes of the text, used as a page title.
func (p Post) Excerpt(n int) string {
	r := []rune(p.Text)
	if len(r) <= n {
		return p.Text
	}
	return string(r[:n])
}

// Comment is a reply to a post.
type Comment struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	PostID   uint      `gorm:"not null;index" json:"post_id"`
	Post     Post      `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	AuthorID uint      `gorm:"not null;index" json:"author_id"`
	Author   User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	Text     string    `gorm:"type:text;not null;check:chk_comments_text_not_blank,trim(text) <> ''" json:"text"`
	Created  time.Time `gorm:"autoCreateTime;not null" json:"created"`
}

// Page is one slice of an ordered post listing.
type Page struct {
	Posts    []Post
	Number   int
	NumPages int
	Total    int64
	PerPage  int
}

func (p *Page) HasPrevious() bool { return p.Number > 1 }
func (p *Page) HasNext() bool     { return p.Number < p.NumPages }
func (p *Page) HasOtherPages() bool {
	return p.HasPrevious() || p.HasNext()
}
func (p *Page) PreviousNumber() int { return p.Number - 1 }
func (p *Page) NextNumber() int     { return p.Number + 1 }

// PageRange lists every page number, for rendering the paginator.
func (p *Page) PageRange() []int {
	out := make([]int, p.NumPages)
	for i := range out {
		out[i] = i + 1
	}
	return out
}
