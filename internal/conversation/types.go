package conversation

import "time"

// Role identifies the author of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Kind distinguishes plain text turns from uploaded-file summary turns.
type Kind string

const (
	KindText        Kind = "text"
	KindFileSummary Kind = "file-summary"
)

// FileMeta describes an uploaded document on a file-summary turn.
type FileMeta struct {
	Name      string `json:"name"`
	SizeLabel string `json:"size_label"`
	PageCount int    `json:"page_count"`
}

// Turn is a single immutable entry in the conversation log.
type Turn struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Kind      Kind      `json:"kind"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	FileMeta  *FileMeta `json:"file_meta,omitempty"`
}
