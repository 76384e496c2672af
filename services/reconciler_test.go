package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jemaltech/app2automate/models"
)

type reconcilerFixture struct {
	store      *fakeStore
	index      *fakeIndex
	posts      PostService
	reconciler *Reconciler
	owner      Principal
}

func newReconcilerFixture() *reconcilerFixture {
	store := newFakeStore()
	index := newFakeIndex()
	store.addBlog(1, 7)

	r := NewReconciler(store, store, index, ReconcilerConfig{
		BatchSize:  10,
		MaxRetries: 3,
		MinAge:     5 * time.Second,
		Retention:  time.Hour,
	}, zap.NewNop())
	// Look far enough ahead that every entry has passed MinAge.
	r.now = func() time.Time { return time.Now().Add(time.Minute) }

	return &reconcilerFixture{
		store:      store,
		index:      index,
		posts:      NewPostService(store, store, store, index),
		reconciler: r,
		owner:      Principal{UserID: 7, Role: models.RoleUser},
	}
}

func (f *reconcilerFixture) create(t *testing.T, title string) *models.Post {
	t.Helper()
	post, err := f.posts.Create(context.Background(), f.owner, models.PostRequest{
		Title: title, Content: "c", Date: time.Now(), BlogID: 1,
	})
	require.NoError(t, err)
	return post
}

func TestReconcileOnce_RepairsFailedWrites(t *testing.T) {
	f := newReconcilerFixture()
	ctx := context.Background()

	f.index.setErr(errors.New("down"))
	kept := f.create(t, "kept")
	gone := f.create(t, "gone")
	require.NoError(t, f.posts.Delete(ctx, gone.ID))
	f.index.setErr(nil)

	res, err := f.reconciler.ReconcileOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Applied)
	assert.Zero(t, res.Failed)

	doc, ok := f.index.doc(kept.ID)
	require.True(t, ok)
	assert.Equal(t, "kept", doc.Title)
	_, ok = f.index.doc(gone.ID)
	assert.False(t, ok)

	stats, err := f.store.Stats(ctx, 3)
	require.NoError(t, err)
	assert.Zero(t, stats.Pending)
}

func TestReconcileOnce_AppliesLatestStateOncePerPost(t *testing.T) {
	f := newReconcilerFixture()
	ctx := context.Background()

	f.index.setErr(errors.New("down"))
	post := f.create(t, "first")
	_, err := f.posts.Update(ctx, f.owner, models.PostRequest{
		ID: &post.ID, Title: "second", Content: "c", Date: time.Now(), BlogID: 1,
	})
	require.NoError(t, err)
	f.index.setErr(nil)

	res, err := f.reconciler.ReconcileOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Applied)
	assert.Equal(t, 1, f.index.saves)

	doc, ok := f.index.doc(post.ID)
	require.True(t, ok)
	assert.Equal(t, "second", doc.Title)
}

func TestReconcileOnce_DefersEntryOvertakenByAWrite(t *testing.T) {
	f := newReconcilerFixture()
	ctx := context.Background()

	f.index.setErr(errors.New("down"))
	post := f.create(t, "first")
	f.index.setErr(nil)

	hold := f.index.holdNextSave()
	done := make(chan ReconcileResult, 1)
	go func() {
		res, err := f.reconciler.ReconcileOnce(ctx)
		assert.NoError(t, err)
		done <- res
	}()

	<-hold.entered
	_, err := f.posts.Update(ctx, f.owner, models.PostRequest{
		ID: &post.ID, Title: "second", Content: "c", Date: time.Now(), BlogID: 1,
	})
	require.NoError(t, err)
	close(hold.release)

	res := <-done
	assert.Equal(t, 1, res.Deferred)
	assert.Zero(t, res.Applied)

	res, err = f.reconciler.ReconcileOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Applied)

	doc, ok := f.index.doc(post.ID)
	require.True(t, ok)
	assert.Equal(t, "second", doc.Title)

	stats, err := f.store.Stats(ctx, 3)
	require.NoError(t, err)
	assert.Zero(t, stats.Pending)
}

func TestReconcileOnce_SkipsFreshEntries(t *testing.T) {
	f := newReconcilerFixture()
	f.reconciler.now = time.Now

	f.index.setErr(errors.New("down"))
	f.create(t, "fresh")
	f.index.setErr(nil)

	res, err := f.reconciler.ReconcileOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Applied)
}

func TestReconcileOnce_CountsRetriesUntilExhausted(t *testing.T) {
	f := newReconcilerFixture()
	ctx := context.Background()

	f.index.setErr(errors.New("down"))
	f.create(t, "stuck")

	for i := 0; i < 3; i++ {
		_, err := f.reconciler.ReconcileOnce(ctx)
		require.NoError(t, err)
	}

	stats, err := f.store.Stats(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Exhausted)

	res, err := f.reconciler.ReconcileOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Applied+res.Failed)
}

func TestReindex(t *testing.T) {
	f := newReconcilerFixture()
	f.reconciler.cfg.BatchSize = 2

	f.index.setErr(errors.New("down"))
	for _, title := range []string{"a", "b", "c", "d", "e"} {
		f.create(t, title)
	}
	f.index.setErr(nil)

	n, err := f.reconciler.Reindex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	count, err := f.index.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
}

func TestStatusAndPurge(t *testing.T) {
	f := newReconcilerFixture()
	ctx := context.Background()
	f.create(t, "one")

	status, err := f.reconciler.Status(ctx)
	require.NoError(t, err)
	assert.Zero(t, status.Outbox.Pending)
	assert.Equal(t, int64(1), status.IndexedDocuments)
	assert.Empty(t, status.IndexError)

	f.reconciler.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	n, err := f.reconciler.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	f.index.setErr(errors.New("down"))
	status, err = f.reconciler.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "down", status.IndexError)
}

func TestRunStopsOnCancel(t *testing.T) {
	f := newReconcilerFixture()
	f.reconciler.cfg.Interval = 10 * time.Millisecond
	f.reconciler.cfg.MaxRetries = 1000

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.reconciler.Run(ctx)
		close(done)
	}()

	f.index.setErr(errors.New("down"))
	post := f.create(t, "eventually")
	f.index.setErr(nil)

	assert.Eventually(t, func() bool {
		_, ok := f.index.doc(post.ID)
		return ok
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reconciler did not stop")
	}
}
