package models

import "time"

// AdminRecipient is the fixed username all admin-facing notifications
// are addressed to.
const AdminRecipient = "admin"

// NotificationStatus is the read/tombstone state of a notification.
// Deleted rows stay in the table and are filtered out of every list.
type NotificationStatus string

const (
	NotificationUnread  NotificationStatus = "unread"
	NotificationRead    NotificationStatus = "read"
	NotificationDeleted NotificationStatus = "deleted"
)

// Rendering buckets derived from notification message keywords.
const (
	BucketResolved = "resolved"
	BucketReviewed = "reviewed"
)

// Notification is an immutable emitted fact addressed to one username.
// It references its complaint only through the message text.
type Notification struct {
	ID        int64              `db:"id" json:"id"`
	Username  string             `db:"username" json:"username"`
	Message   string             `db:"message" json:"message"`
	Status    NotificationStatus `db:"status" json:"status"`
	CreatedAt time.Time          `db:"created_at" json:"created_at"`
}

// NotificationView is a list item with the derived rendering bucket.
// The bucket is computed from message keywords at read time, never stored.
type NotificationView struct {
	Notification
	Bucket string `json:"bucket"`
}
