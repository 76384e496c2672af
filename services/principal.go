package services

import "github.com/jemaltech/app2automate/models"

// Principal is the authenticated caller. Handlers resolve it from the
// request and pass it into every operation that is scoped to a user.
type Principal struct {
	UserID uint
	Login  string
	Role   models.UserRole
}

func (p Principal) IsAdmin() bool {
	return p.Role == models.RoleAdmin
}

// Owns reports whether the principal may write to blog.
func (p Principal) Owns(blog *models.Blog) bool {
	return blog != nil && (blog.UserID == p.UserID || p.IsAdmin())
}
