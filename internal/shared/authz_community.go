package shared

// Review permissions declared for RBAC.
const (
	PermReviewView      = "review.view"
	PermReviewCreate    = "review.create"
	PermReviewUpdateOwn = "review.update.own"
	PermReviewModerate  = "review.moderate"
	PermReviewDeleteOwn = "review.delete.own"
	PermReviewDeleteAny = "review.delete.any"
)

// Bookmark permissions declared for RBAC.
const (
	PermBookmarkView   = "bookmark.view"
	PermBookmarkCreate = "bookmark.create"
	PermBookmarkDelete = "bookmark.delete.own"
)

// Notification permissions declared for RBAC.
const (
	PermNotificationSend = "notification.send"
)

// CommunityScopes lists all permissions related to reviews, bookmarks and
// notifications.
func CommunityScopes() []string {
	return []string{
		PermReviewView,
		PermReviewCreate,
		PermReviewUpdateOwn,
		PermReviewModerate,
		PermReviewDeleteOwn,
		PermReviewDeleteAny,
		PermBookmarkView,
		PermBookmarkCreate,
		PermBookmarkDelete,
		PermNotificationSend,
	}
}

// AllScopes aggregates every permission the platform declares. The seed
// script uses it to provision the permission catalog.
func AllScopes() []string {
	var all []string
	all = append(all, CoreScopes()...)
	all = append(all, CatalogScopes()...)
	all = append(all, CommunityScopes()...)
	return all
}
