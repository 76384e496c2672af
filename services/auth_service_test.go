package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/jemaltech/app2automate/models"
)

type fakeUsers struct {
	users map[uint]*models.User
}

func (f *fakeUsers) Create(_ context.Context, user *models.User) error {
	user.ID = uint(len(f.users) + 1)
	f.users[user.ID] = user
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uint) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUsers) GetByLogin(_ context.Context, login string) (*models.User, error) {
	for _, u := range f.users {
		if u.Login == login {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	secret := []byte("test-secret")
	svc := NewAuthService(&fakeUsers{users: map[uint]*models.User{}}, secret, time.Hour)
	ctx := context.Background()

	resp, err := svc.Register(ctx, models.RegisterRequest{Login: "Alice", Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "alice", resp.User.Login)
	assert.Equal(t, models.RoleUser, resp.User.Role)
	assert.NotEqual(t, "secret1", resp.User.Password)

	token, err := jwt.Parse(resp.Token, func(*jwt.Token) (interface{}, error) { return secret, nil })
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, "alice", claims["login"])
	assert.Equal(t, float64(resp.User.ID), claims["user_id"])

	_, err = svc.Register(ctx, models.RegisterRequest{Login: "alice", Email: "other@example.com", Password: "secret1"})
	var conflict *models.ErrorConflict
	assert.True(t, errors.As(err, &conflict))

	_, err = svc.Login(ctx, models.LoginRequest{Login: "alice", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, models.LoginRequest{Login: "alice", Password: "wrong"})
	var unauthorized *models.ErrorUnauthorized
	assert.True(t, errors.As(err, &unauthorized))

	_, err = svc.Login(ctx, models.LoginRequest{Login: "nobody", Password: "x"})
	assert.True(t, errors.As(err, &unauthorized))

	_, err = svc.GetUserByID(ctx, 42)
	var notFound *models.ErrorNotFound
	assert.True(t, errors.As(err, &notFound))
}

func TestBlogService(t *testing.T) {
	store := newFakeStore()
	svc := NewBlogService(store)
	ctx := context.Background()
	alice := Principal{UserID: 1}
	bob := Principal{UserID: 2}

	blog, err := svc.CreateBlog(ctx, alice, models.CreateBlogRequest{Name: "Notes", Handle: "notes"})
	require.NoError(t, err)
	assert.Equal(t, uint(1), blog.UserID)

	_, err = svc.CreateBlog(ctx, bob, models.CreateBlogRequest{Name: "Notes", Handle: "notes"})
	var conflict *models.ErrorConflict
	assert.True(t, errors.As(err, &conflict))

	_, err = svc.GetBlog(ctx, alice, blog.ID)
	assert.NoError(t, err)

	_, err = svc.GetBlog(ctx, bob, blog.ID)
	var notFound *models.ErrorNotFound
	assert.True(t, errors.As(err, &notFound))

	blogs, err := svc.GetBlogs(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, blogs)
}
