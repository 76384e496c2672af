package models

import "time"

type Post struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	Title     string    `json:"title" gorm:"not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	Date      time.Time `json:"date" gorm:"not null;index"`
	BlogID    uint      `json:"blog_id" gorm:"not null;index"`
	Blog      *Blog     `json:"blog,omitempty" gorm:"foreignKey:BlogID"`
	Tags      []Tag     `json:"tags" gorm:"many2many:post_tags;"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TagNames returns the names of the attached tags in attachment order.
func (p *Post) TagNames() []string {
	names := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		names = append(names, t.Name)
	}
	return names
}
