package services

import (
	"context"
	"errors"
	"time"

	"github.com/jemaltech/app2automate/logger"
	"github.com/jemaltech/app2automate/metrics"
	"github.com/jemaltech/app2automate/models"
	"github.com/jemaltech/app2automate/repositories"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const entityPost = "post"

// PostIndexer is the search index as seen by the post coordinator.
type PostIndexer interface {
	Save(ctx context.Context, doc models.PostDocument) error
	DeleteByID(ctx context.Context, id uint) error
	Search(ctx context.Context, text string, offset, limit int) ([]models.PostDocument, int64, error)
}

// PostService keeps the primary store and the search index in step. The
// primary store is written first and decides the outcome; a failed index
// write is logged, counted and left in the outbox for the reconciler.
type PostService interface {
	Create(ctx context.Context, principal Principal, req models.PostRequest) (*models.Post, error)
	Update(ctx context.Context, principal Principal, req models.PostRequest) (*models.Post, error)
	Delete(ctx context.Context, id uint) error
	Get(ctx context.Context, id uint) (*models.Post, error)
	List(ctx context.Context, principal Principal, page models.PageRequest) (*models.Page[models.Post], error)
	Search(ctx context.Context, query string, page models.PageRequest) (*models.Page[models.PostDocument], error)
}

type postService struct {
	postRepo   repositories.PostRepository
	blogRepo   repositories.BlogRepository
	outboxRepo repositories.IndexOutboxRepository
	index      PostIndexer
}

func NewPostService(
	postRepo repositories.PostRepository,
	blogRepo repositories.BlogRepository,
	outboxRepo repositories.IndexOutboxRepository,
	index PostIndexer,
) PostService {
	return &postService{
		postRepo:   postRepo,
		blogRepo:   blogRepo,
		outboxRepo: outboxRepo,
		index:      index,
	}
}

func (s *postService) Create(ctx context.Context, principal Principal, req models.PostRequest) (*models.Post, error) {
	if req.ID != nil {
		return nil, models.NewInvalidRequest(entityPost, "idexists", "A new post cannot already have an ID")
	}

	blogID := req.BlogID
	if blogID == 0 {
		defaultID, err := s.defaultBlogID(ctx, principal)
		if err != nil {
			return nil, err
		}
		blogID = defaultID
	}

	blog, err := s.writableBlog(ctx, principal, blogID)
	if err != nil {
		return nil, err
	}

	date := req.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	post := &models.Post{
		Title:   req.Title,
		Content: req.Content,
		Date:    date,
		BlogID:  blog.ID,
	}

	outboxID, err := s.postRepo.Save(ctx, post, req.TagNames())
	if err != nil {
		return nil, &models.ErrorStorage{Op: "create post", Err: err}
	}
	post.Blog = blog

	s.propagate(ctx, models.IndexOperationUpsert, post.ID, outboxID, func(ctx context.Context) error {
		return s.index.Save(ctx, models.NewPostDocument(post))
	})

	return post, nil
}

func (s *postService) Update(ctx context.Context, principal Principal, req models.PostRequest) (*models.Post, error) {
	if req.ID == nil {
		return nil, models.NewInvalidRequest(entityPost, "idnull", "Invalid id")
	}

	post, err := s.find(ctx, *req.ID)
	if err != nil {
		return nil, err
	}
	// A soft-deleted blog is not preloaded.
	if post.Blog == nil {
		return nil, models.NewInvalidRequest(entityPost, "blognotfound", "Blog not found")
	}
	if !principal.Owns(post.Blog) {
		return nil, models.NewInvalidRequest(entityPost, "postnotowned", "Post belongs to another user's blog")
	}

	blogID := req.BlogID
	if blogID == 0 {
		blogID = post.BlogID
	}
	blog, err := s.writableBlog(ctx, principal, blogID)
	if err != nil {
		return nil, err
	}

	post.Title = req.Title
	post.Content = req.Content
	if !req.Date.IsZero() {
		post.Date = req.Date
	}
	post.BlogID = blog.ID
	post.Blog = nil
	post.Tags = nil

	outboxID, err := s.postRepo.Save(ctx, post, req.TagNames())
	if err != nil {
		return nil, &models.ErrorStorage{Op: "update post", Err: err}
	}
	post.Blog = blog

	s.propagate(ctx, models.IndexOperationUpsert, post.ID, outboxID, func(ctx context.Context) error {
		return s.index.Save(ctx, models.NewPostDocument(post))
	})

	return post, nil
}

func (s *postService) Delete(ctx context.Context, id uint) error {
	outboxID, err := s.postRepo.DeleteByID(ctx, id)
	if err != nil {
		return &models.ErrorStorage{Op: "delete post", Err: err}
	}

	s.propagate(ctx, models.IndexOperationDelete, id, outboxID, func(ctx context.Context) error {
		return s.index.DeleteByID(ctx, id)
	})

	return nil
}

func (s *postService) Get(ctx context.Context, id uint) (*models.Post, error) {
	return s.find(ctx, id)
}

// List returns the principal's posts. Tags are always loaded, so the
// eagerload flag of the request changes nothing.
func (s *postService) List(ctx context.Context, principal Principal, page models.PageRequest) (*models.Page[models.Post], error) {
	posts, total, err := s.postRepo.FindByBlogUser(ctx, principal.UserID, page)
	if err != nil {
		return nil, &models.ErrorStorage{Op: "list posts", Err: err}
	}
	return &models.Page[models.Post]{Content: posts, Total: total, Page: page.Page, Size: page.Size}, nil
}

// Search answers from the search index alone, which may trail the primary
// store until pending outbox entries are applied.
func (s *postService) Search(ctx context.Context, query string, page models.PageRequest) (*models.Page[models.PostDocument], error) {
	docs, total, err := s.index.Search(ctx, query, page.Offset(), page.Size)
	if err != nil {
		return nil, &models.ErrorStorage{Op: "search posts", Err: err}
	}
	return &models.Page[models.PostDocument]{Content: docs, Total: total, Page: page.Page, Size: page.Size}, nil
}

func (s *postService) find(ctx context.Context, id uint) (*models.Post, error) {
	post, err := s.postRepo.FindOneWithTags(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &models.ErrorNotFound{Entity: entityPost, ID: id}
		}
		return nil, &models.ErrorStorage{Op: "get post", Err: err}
	}
	return post, nil
}

// defaultBlogID picks the principal's oldest blog for posts that name none.
func (s *postService) defaultBlogID(ctx context.Context, principal Principal) (uint, error) {
	blogs, err := s.blogRepo.GetByUser(ctx, principal.UserID)
	if err != nil {
		return 0, &models.ErrorStorage{Op: "list blogs", Err: err}
	}
	if len(blogs) == 0 {
		return 0, models.NewInvalidRequest(entityPost, "blognotfound", "Blog not found")
	}

	id := blogs[0].ID
	for _, b := range blogs[1:] {
		if b.ID < id {
			id = b.ID
		}
	}
	return id, nil
}

// writableBlog loads the blog a post is saved into and checks that the
// principal owns it.
func (s *postService) writableBlog(ctx context.Context, principal Principal, blogID uint) (*models.Blog, error) {
	blog, err := s.blogRepo.GetByID(ctx, blogID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewInvalidRequest(entityPost, "blognotfound", "Blog not found")
		}
		return nil, &models.ErrorStorage{Op: "get blog", Err: err}
	}
	if !principal.Owns(blog) {
		return nil, models.NewInvalidRequest(entityPost, "blognotowned", "Blog belongs to another user")
	}
	return blog, nil
}

// propagate applies a committed change to the search index and settles its
// outbox entry. It never fails the caller.
func (s *postService) propagate(ctx context.Context, op models.IndexOperation, postID uint, outboxID uint64, write func(context.Context) error) {
	log := logger.FromContext(ctx)
	// The primary store has committed; a client going away must not stop
	// the index from catching up.
	ctx = context.WithoutCancel(ctx)

	if err := write(ctx); err != nil {
		perr := &models.ErrorIndexPropagation{Op: op, PostID: postID, Err: err}
		log.Warn("search index write failed, queued for reconciliation",
			zap.Uint("post_id", postID),
			zap.String("op", string(op)),
			zap.Uint64("outbox_id", outboxID),
			zap.Error(perr),
		)
		metrics.IndexPropagationFailures.WithLabelValues(string(op)).Inc()

		if err := s.outboxRepo.MarkError(ctx, outboxID, perr.Error()); err != nil {
			log.Error("failed to record outbox error", zap.Uint64("outbox_id", outboxID), zap.Error(err))
		}
		return
	}

	// A later write to the same post may have reached the index first. Only
	// the newest entry may be settled here; older ones stay pending and the
	// reconciler re-reads the post.
	latest, err := s.outboxRepo.LatestID(ctx, postID)
	if err != nil {
		log.Error("failed to read latest outbox entry", zap.Uint64("outbox_id", outboxID), zap.Error(err))
		return
	}
	if latest != outboxID {
		log.Info("index write superseded, left for reconciliation",
			zap.Uint("post_id", postID),
			zap.Uint64("outbox_id", outboxID),
			zap.Uint64("latest_outbox_id", latest),
		)
		return
	}

	if err := s.outboxRepo.MarkProcessed(ctx, outboxID); err != nil {
		log.Error("failed to mark outbox entry processed", zap.Uint64("outbox_id", outboxID), zap.Error(err))
	}
}
