package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/jemaltech/app2automate/models"
)

// fakeStore is an in-memory primary store. It implements the post, blog and
// outbox repositories so one instance can back a whole service graph.
type fakeStore struct {
	mu           sync.Mutex
	posts        map[uint]models.Post
	blogs        map[uint]models.Blog
	tags         map[string]models.Tag
	outbox       []models.IndexOutbox
	nextPostID   uint
	nextTagID    uint
	nextOutboxID uint64
	saveErr      error
	findErr      error
	writes       int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		posts: map[uint]models.Post{},
		blogs: map[uint]models.Blog{},
		tags:  map[string]models.Tag{},
	}
}

func (f *fakeStore) addBlog(id, userID uint) models.Blog {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := models.Blog{ID: id, Name: "blog", Handle: "blog", UserID: userID}
	f.blogs[id] = b
	return b
}

// removeBlog drops the blog as a soft delete would; its posts stay.
func (f *fakeStore) removeBlog(id uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.blogs, id)
}

func (f *fakeStore) record(postID uint, op models.IndexOperation) uint64 {
	f.nextOutboxID++
	f.outbox = append(f.outbox, models.IndexOutbox{
		ID:        f.nextOutboxID,
		PostID:    postID,
		Operation: op,
		CreatedAt: time.Now(),
	})
	return f.nextOutboxID
}

func (f *fakeStore) entry(id uint64) models.IndexOutbox {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.outbox {
		if e.ID == id {
			return e
		}
	}
	return models.IndexOutbox{}
}

// PostRepository

func (f *fakeStore) Save(_ context.Context, post *models.Post, tagNames []string) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return 0, f.saveErr
	}
	f.writes++

	tags := make([]models.Tag, 0, len(tagNames))
	for _, name := range tagNames {
		t, ok := f.tags[name]
		if !ok {
			f.nextTagID++
			t = models.Tag{ID: f.nextTagID, Name: name}
			f.tags[name] = t
		}
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })

	if post.ID == 0 {
		f.nextPostID++
		post.ID = f.nextPostID
	}
	post.Tags = tags

	stored := *post
	stored.Blog = nil
	f.posts[post.ID] = stored

	return f.record(post.ID, models.IndexOperationUpsert), nil
}

func (f *fakeStore) FindOneWithTags(_ context.Context, id uint) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	p, ok := f.posts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if b, ok := f.blogs[p.BlogID]; ok {
		p.Blog = &b
	}
	return &p, nil
}

func (f *fakeStore) FindByBlogUser(_ context.Context, userID uint, page models.PageRequest) ([]models.Post, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var owned []models.Post
	for _, p := range f.posts {
		if b, ok := f.blogs[p.BlogID]; ok && b.UserID == userID {
			owned = append(owned, p)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].Date.After(owned[j].Date) })

	total := int64(len(owned))
	start := page.Offset()
	if start > len(owned) {
		start = len(owned)
	}
	end := start + page.Size
	if end > len(owned) {
		end = len(owned)
	}
	return owned[start:end], total, nil
}

func (f *fakeStore) DeleteByID(_ context.Context, id uint) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return 0, f.saveErr
	}
	f.writes++
	delete(f.posts, id)
	return f.record(id, models.IndexOperationDelete), nil
}

func (f *fakeStore) FindBatch(_ context.Context, afterID uint, limit int) ([]models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []uint
	for id := range f.posts {
		if id > afterID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if len(ids) > limit {
		ids = ids[:limit]
	}
	out := make([]models.Post, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.posts[id])
	}
	return out, nil
}

// BlogRepository

func (f *fakeStore) Create(_ context.Context, blog *models.Blog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if blog.ID == 0 {
		blog.ID = uint(len(f.blogs) + 100)
	}
	f.blogs[blog.ID] = *blog
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id uint) (*models.Blog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.blogs[id]
	if !ok {
		return &models.Blog{}, gorm.ErrRecordNotFound
	}
	return &b, nil
}

func (f *fakeStore) GetByHandle(_ context.Context, handle string) (*models.Blog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.blogs {
		if b.Handle == handle {
			return &b, nil
		}
	}
	return &models.Blog{}, gorm.ErrRecordNotFound
}

func (f *fakeStore) GetByUser(_ context.Context, userID uint) ([]models.Blog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Blog
	for _, b := range f.blogs {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

// IndexOutboxRepository

func (f *fakeStore) ListPending(_ context.Context, limit, maxRetries int, createdBefore time.Time) ([]models.IndexOutbox, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.IndexOutbox
	for _, e := range f.outbox {
		if e.ProcessedAt == nil && e.RetryCount < maxRetries && !e.CreatedAt.After(createdBefore) {
			out = append(out, e)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) MarkProcessed(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.outbox {
		if f.outbox[i].ID == id {
			now := time.Now()
			f.outbox[i].ProcessedAt = &now
			f.outbox[i].ErrorMessage = ""
		}
	}
	return nil
}

func (f *fakeStore) MarkError(_ context.Context, id uint64, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.outbox {
		if f.outbox[i].ID == id {
			f.outbox[i].ErrorMessage = message
			f.outbox[i].RetryCount++
		}
	}
	return nil
}

func (f *fakeStore) LatestID(_ context.Context, postID uint) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest uint64
	for _, e := range f.outbox {
		if e.PostID == postID && e.ID > latest {
			latest = e.ID
		}
	}
	return latest, nil
}

func (f *fakeStore) Stats(_ context.Context, maxRetries int) (*models.OutboxStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &models.OutboxStats{}
	for _, e := range f.outbox {
		if e.ProcessedAt != nil {
			continue
		}
		stats.Pending++
		if e.ErrorMessage != "" {
			stats.Failed++
		}
		if e.RetryCount >= maxRetries {
			stats.Exhausted++
		}
		if stats.OldestPendingTime == nil || e.CreatedAt.Before(*stats.OldestPendingTime) {
			t := e.CreatedAt
			stats.OldestPendingTime = &t
		}
	}
	return stats, nil
}

func (f *fakeStore) PurgeProcessed(_ context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.outbox[:0]
	var n int64
	for _, e := range f.outbox {
		if e.ProcessedAt != nil && e.ProcessedAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, e)
	}
	f.outbox = kept
	return n, nil
}

// fakeIndex is an in-memory search index that can be told to fail.
type fakeIndex struct {
	mu      sync.Mutex
	docs    map[uint]models.PostDocument
	err     error
	saves   int
	deletes int
	// hold, when set, parks the next Save until released.
	hold    *saveHold
}

type saveHold struct {
	entered chan struct{}
	release chan struct{}
}

// holdNextSave makes the next Save wait after it is called and before it
// writes. The returned hold signals entered and resumes on release.
func (f *fakeIndex) holdNextSave() *saveHold {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hold = &saveHold{entered: make(chan struct{}), release: make(chan struct{})}
	return f.hold
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{docs: map[uint]models.PostDocument{}}
}

func (f *fakeIndex) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeIndex) doc(id uint) (models.PostDocument, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[id]
	return d, ok
}

func (f *fakeIndex) Save(_ context.Context, doc models.PostDocument) error {
	f.mu.Lock()
	hold := f.hold
	f.hold = nil
	f.mu.Unlock()
	if hold != nil {
		close(hold.entered)
		<-hold.release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.saves++
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeIndex) DeleteByID(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.deletes++
	delete(f.docs, id)
	return nil
}

func (f *fakeIndex) Search(_ context.Context, text string, offset, limit int) ([]models.PostDocument, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, 0, f.err
	}
	var hits []models.PostDocument
	for _, d := range f.docs {
		if text == "" || text == "*" || strings.Contains(d.Title, text) || strings.Contains(d.Content, text) {
			hits = append(hits, d)
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].ID < hits[j].ID })
	total := int64(len(hits))
	if offset > len(hits) {
		offset = len(hits)
	}
	end := offset + limit
	if end > len(hits) {
		end = len(hits)
	}
	return hits[offset:end], total, nil
}

func (f *fakeIndex) EnsureIndex(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *fakeIndex) Count(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	return int64(len(f.docs)), nil
}
