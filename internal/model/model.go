package model

// Attribute names used for change:<attr> notifications.
const (
	AttrTitle     = "title"
	AttrCompleted = "completed"
)

// Task is the persisted record of one todo entry.
type Task struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	Order     int    `json:"order"`
}

// Attrs is a partial update for save-style merges. Nil fields are left untouched.
// There is no ID or Order field: both are fixed at creation.
type Attrs struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

func TitleAttr(s string) Attrs { return Attrs{Title: &s} }

func CompletedAttr(b bool) Attrs { return Attrs{Completed: &b} }
