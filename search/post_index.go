package search

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jemaltech/app2automate/models"
)

const tagSeparator = ","

// indexStore is the subset of Store that PostIndex needs.
type indexStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	Search(ctx context.Context, q *Query) (*Result, error)
}

// PostIndex stores PostDocuments as hashes keyed <prefix><id> and queries
// them through a single FT index.
type PostIndex struct {
	store  indexStore
	name   string
	prefix string
}

func NewPostIndex(store indexStore, name, prefix string) *PostIndex {
	return &PostIndex{store: store, name: name, prefix: prefix}
}

func (p *PostIndex) Definition() *IndexDefinition {
	return &IndexDefinition{
		Name:     p.name,
		Prefixes: []string{p.prefix},
		Fields: []IndexField{
			{Name: "title", Type: FieldText, Weight: 2},
			{Name: "content", Type: FieldText},
			{Name: "tags", Type: FieldTag, TagSeparator: tagSeparator},
			{Name: "blog", Type: FieldText},
			{Name: "blog_id", Type: FieldNumeric},
			{Name: "date", Type: FieldNumeric, Sortable: true},
		},
	}
}

// EnsureIndex creates the index unless it already exists.
func (p *PostIndex) EnsureIndex(ctx context.Context) error {
	exists, err := p.store.IndexExists(ctx, p.name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if err := p.store.CreateIndex(ctx, p.Definition()); err != nil && !errors.Is(err, ErrIndexExists) {
		return err
	}
	return nil
}

// Save upserts the document under its id. Every field is always written, so
// a second Save fully replaces the first.
func (p *PostIndex) Save(ctx context.Context, doc models.PostDocument) error {
	for _, tag := range doc.Tags {
		if strings.Contains(tag, tagSeparator) {
			return fmt.Errorf("%w: post %d: tag %q contains %q", ErrInvalidDocument, doc.ID, tag, tagSeparator)
		}
	}
	return p.store.HSet(ctx, p.key(doc.ID), encodeDocument(doc))
}

// DeleteByID removes the document. Removing an absent document succeeds.
func (p *PostIndex) DeleteByID(ctx context.Context, id uint) error {
	return p.store.Del(ctx, p.key(id))
}

// Get returns the indexed document, or found=false when none is stored.
func (p *PostIndex) Get(ctx context.Context, id uint) (models.PostDocument, bool, error) {
	fields, err := p.store.HGetAll(ctx, p.key(id))
	if err != nil {
		return models.PostDocument{}, false, err
	}
	if len(fields) == 0 {
		return models.PostDocument{}, false, nil
	}
	doc, err := decodeDocument(p.key(id), fields)
	if err != nil {
		return models.PostDocument{}, false, err
	}
	return doc, true, nil
}

// Search runs a free-text query. Match-all queries are ordered newest first,
// text queries by relevance.
func (p *PostIndex) Search(ctx context.Context, text string, offset, limit int) ([]models.PostDocument, int64, error) {
	q := &Query{
		Index:  p.name,
		Query:  BuildTextQuery(text, "tags"),
		Offset: offset,
		Limit:  limit,
	}
	if q.Query == MatchAll {
		q.SortBy = "date"
		q.Desc = true
	}

	res, err := p.store.Search(ctx, q)
	if err != nil {
		return nil, 0, err
	}

	docs := make([]models.PostDocument, 0, len(res.Entries))
	for _, e := range res.Entries {
		doc, err := decodeDocument(e.Key, e.Fields)
		if err != nil {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, res.Total, nil
}

// Count returns the number of indexed documents.
func (p *PostIndex) Count(ctx context.Context) (int64, error) {
	res, err := p.store.Search(ctx, &Query{Index: p.name, Query: MatchAll})
	if err != nil {
		return 0, err
	}
	return res.Total, nil
}

func (p *PostIndex) key(id uint) string {
	return p.prefix + strconv.FormatUint(uint64(id), 10)
}

func encodeDocument(doc models.PostDocument) map[string]string {
	return map[string]string{
		"id":      strconv.FormatUint(uint64(doc.ID), 10),
		"title":   doc.Title,
		"content": doc.Content,
		"tags":    strings.Join(doc.Tags, tagSeparator),
		"blog":    doc.BlogName,
		"blog_id": strconv.FormatUint(uint64(doc.BlogID), 10),
		"date":    strconv.FormatInt(doc.Date.UnixMilli(), 10),
	}
}

func decodeDocument(key string, f map[string]string) (models.PostDocument, error) {
	id, err := strconv.ParseUint(f["id"], 10, 64)
	if err != nil {
		return models.PostDocument{}, fmt.Errorf("document %s: bad id: %w", key, err)
	}
	doc := models.PostDocument{
		ID:       uint(id),
		Title:    f["title"],
		Content:  f["content"],
		BlogName: f["blog"],
		Tags:     []string{},
	}
	if v := f["blog_id"]; v != "" {
		blogID, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return models.PostDocument{}, fmt.Errorf("document %s: bad blog_id: %w", key, err)
		}
		doc.BlogID = uint(blogID)
	}
	if v := f["date"]; v != "" {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return models.PostDocument{}, fmt.Errorf("document %s: bad date: %w", key, err)
		}
		doc.Date = time.UnixMilli(ms).UTC()
	}
	if v := f["tags"]; v != "" {
		doc.Tags = strings.Split(v, tagSeparator)
	}
	return doc, nil
}
