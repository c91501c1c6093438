// Package api holds the JSON bodies exchanged between the server and
// pkg/client.
package api

import "github.com/gurkanbulca/neighborhelp/pkg/paging"

const (
	ClassSentByMe     = "sentByMe"
	ClassSentByOthers = "sentByOthers"

	// NoHelper is shown in place of a helper nickname on unclaimed tasks.
	NoHelper = "N/A"
)

type Task struct {
	KeyString          string  `json:"keyString"`
	Owner              string  `json:"owner"`
	OwnerNickname      string  `json:"ownerNickname"`
	Helper             string  `json:"helper,omitempty"`
	HelperNickname     string  `json:"helperNickname"`
	Status             string  `json:"status"`
	Category           string  `json:"category"`
	Overview           string  `json:"overview"`
	Detail             string  `json:"detail"`
	Reward             int64   `json:"reward"`
	Address            string  `json:"address"`
	Zipcode            string  `json:"zipcode"`
	Country            string  `json:"country"`
	Lat                float64 `json:"lat"`
	Lng                float64 `json:"lng"`
	CreationTime       int64   `json:"creationTime"`
	DateTime           string  `json:"dateTime"`
	Version            int64   `json:"version"`
	IsOwnerCurrentUser bool    `json:"isOwnerCurrentUser"`
}

// FeedPage carries pre-rendered HTML, one fragment per page.
type FeedPage = paging.PageSet[string]

type TaskForm struct {
	Category string `json:"category"`
	Overview string `json:"overview"`
	Detail   string `json:"detail"`
	Reward   int64  `json:"reward"`
	Version  int64  `json:"version,omitempty"`
}

type MyTasksPage struct {
	CursorString string `json:"cursorString"`
	Tasks        []Task `json:"tasks"`
}

type Message struct {
	ID        string `json:"id"`
	TaskID    string `json:"taskId"`
	Message   string `json:"message"`
	ClassName string `json:"className"`
	SentTime  int64  `json:"sentTime"`
}

type MessagePage struct {
	CursorString string    `json:"cursorString"`
	Messages     []Message `json:"messages"`
}

type PostMessage struct {
	Message string `json:"message"`
}

type Notification struct {
	TaskID   string `json:"taskId"`
	Overview string `json:"overview"`
	Count    int    `json:"count"`
}

type User struct {
	UserID        string   `json:"userId"`
	Email         string   `json:"email,omitempty"`
	Nickname      string   `json:"nickname"`
	Address       string   `json:"address,omitempty"`
	Zipcode       string   `json:"zipcode"`
	Country       string   `json:"country"`
	Phone         string   `json:"phone,omitempty"`
	Lat           *float64 `json:"lat,omitempty"`
	Lng           *float64 `json:"lng,omitempty"`
	Points        int64    `json:"points"`
	Role          string   `json:"role,omitempty"`
	IsCurrentUser bool     `json:"isCurrentUser"`
}

type Profile struct {
	Nickname string  `json:"nickname"`
	Address  string  `json:"address"`
	Zipcode  string  `json:"zipcode"`
	Country  string  `json:"country"`
	Phone    string  `json:"phone"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname,omitempty"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresAt    int64  `json:"expiresAt"`
	UserID       string `json:"userId"`
}

type Location struct {
	KeyString string  `json:"keyString"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
}

type AdminStats struct {
	ByStatus   map[string]int `json:"byStatus"`
	ByCategory map[string]int `json:"byCategory"`
	Locations  []Location     `json:"locations"`
}

// AdminTaskForm records an errand for a neighbor. Date is YYYY-MM-DD and
// Time is HH:MM.
type AdminTaskForm struct {
	Owner  string `json:"owner"`
	Detail string `json:"detail"`
	Date   string `json:"date"`
	Time   string `json:"time"`
}

type AdminTask struct {
	KeyString string `json:"keyString"`
	Owner     string `json:"owner"`
	Detail    string `json:"detail"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	CreatedBy string `json:"createdBy"`
	CreatedAt int64  `json:"createdAt"`
}

type Error struct {
	Error string `json:"error"`
}
