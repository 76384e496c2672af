package models

import "time"

// PostDocument is the flattened Post projection held by the search index.
// It is derived from the primary store and never written back to it.
type PostDocument struct {
	ID       uint      `json:"id"`
	Title    string    `json:"title"`
	Content  string    `json:"content"`
	Date     time.Time `json:"date"`
	BlogID   uint      `json:"blog_id"`
	BlogName string    `json:"blog_name,omitempty"`
	Tags     []string  `json:"tags"`
}

func NewPostDocument(p *Post) PostDocument {
	doc := PostDocument{
		ID:      p.ID,
		Title:   p.Title,
		Content: p.Content,
		Date:    p.Date,
		BlogID:  p.BlogID,
		Tags:    p.TagNames(),
	}
	if p.Blog != nil {
		doc.BlogName = p.Blog.Name
	}
	return doc
}
