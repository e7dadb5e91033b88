package access

import "kbdedup/internal/models"

// IsVisible reports whether user may see doc. Admins see everything.
func IsVisible(doc *models.Document, user *models.User) bool {
	return user.IsAdmin() ||
		doc.Visibility == models.VisibilityPublic ||
		doc.OwnerID == user.ID ||
		doc.IsAuthorized(user.ID)
}
