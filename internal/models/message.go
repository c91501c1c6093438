package models

import "database/sql"

type Message struct {
	ID       string `db:"id"`
	TaskID   string `db:"task_id"`
	SenderID string `db:"sender_id"`
	Body     string `db:"body"`
	SentAt   int64  `db:"sent_at"`
}

// Notification tells a participant about unread chat activity. A null
// receiver waits for the task to be claimed.
type Notification struct {
	ID         string         `db:"id"`
	TaskID     string         `db:"task_id"`
	ReceiverID sql.NullString `db:"receiver_id"`
	CreatedAt  int64          `db:"created_at"`
}

// NotificationCount aggregates notifications per task.
type NotificationCount struct {
	TaskID   string `db:"task_id"`
	Overview string `db:"overview"`
	Count    int    `db:"count"`
}

// AdminTask is an errand an admin records on behalf of a neighbor, usually
// one taken over the phone.
type AdminTask struct {
	ID        string `db:"id"`
	Owner     string `db:"owner"`
	Detail    string `db:"detail"`
	Date      string `db:"scheduled_date"`
	Time      string `db:"scheduled_time"`
	CreatedBy string `db:"created_by"`
	CreatedAt int64  `db:"created_at"`
}
