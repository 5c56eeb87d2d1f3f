package shared

import "fmt"

// ReindexLockKey builds the redis key guarding a search reindex run so
// overlapping scheduled runs do not double-process.
func ReindexLockKey(entity string) string {
	return fmt.Sprintf("reindex:%s:lock", entity)
}

// UnreadCountKey builds the redis key caching a user's unread
// notification count.
func UnreadCountKey(userID string) string {
	return fmt.Sprintf("notifications:%s:unread", userID)
}
