package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostJSONRoundTrip(t *testing.T) {
	post := Post{
		ID:      7,
		Title:   "A",
		Content: "B",
		Date:    time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC),
		BlogID:  3,
		Tags:    []Tag{{ID: 1, Name: "go"}, {ID: 2, Name: "api"}},
	}

	body, err := json.Marshal(post)
	require.NoError(t, err)

	var decoded Post
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, post, decoded)
}

func TestPostRequestWithoutIDDecodesNilID(t *testing.T) {
	var req PostRequest
	require.NoError(t, json.Unmarshal([]byte(`{"title":"A","content":"B","blog_id":1}`), &req))
	assert.Nil(t, req.ID)

	require.NoError(t, json.Unmarshal([]byte(`{"id":4,"title":"A"}`), &req))
	require.NotNil(t, req.ID)
	assert.Equal(t, uint(4), *req.ID)
}

func TestPostRequestTagNamesDeduplicates(t *testing.T) {
	req := PostRequest{Tags: []TagRequest{{Name: "go"}, {Name: "api"}, {ID: 9, Name: "go"}}}
	assert.Equal(t, []string{"go", "api"}, req.TagNames())
}

func TestNewPostDocument(t *testing.T) {
	post := &Post{
		ID:      5,
		Title:   "title",
		Content: "content",
		BlogID:  2,
		Blog:    &Blog{ID: 2, Name: "notes"},
		Tags:    []Tag{{Name: "go"}},
	}

	doc := NewPostDocument(post)
	assert.Equal(t, uint(5), doc.ID)
	assert.Equal(t, "notes", doc.BlogName)
	assert.Equal(t, []string{"go"}, doc.Tags)
}

func TestPageTotalPages(t *testing.T) {
	tests := []struct {
		total int64
		size  int
		want  int
	}{
		{0, 20, 0},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{5, 0, 0},
	}
	for _, tc := range tests {
		p := Page[Post]{Total: tc.total, Size: tc.size}
		assert.Equal(t, tc.want, p.TotalPages(), "total=%d size=%d", tc.total, tc.size)
	}
}

func TestErrorTypesUnwrap(t *testing.T) {
	cause := errors.New("connection refused")

	var storageErr *ErrorStorage
	err := error(&ErrorStorage{Op: "save post", Err: cause})
	assert.True(t, errors.As(err, &storageErr))
	assert.ErrorIs(t, err, cause)

	err = &ErrorIndexPropagation{Op: IndexOperationUpsert, PostID: 3, Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "post 3")

	invalid := NewInvalidRequest("post", "idexists", "A new post cannot already have an ID")
	assert.Equal(t, "error.idexists", invalid.Code())
}
