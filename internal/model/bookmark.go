package model

// Bookmark mirrors one row of the remote Notion database. Bookmarks are
// created and edited only in Notion; this server is read-only.
type Bookmark struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Link   string `json:"link"`
	Type   string `json:"type"`
	Status string `json:"status"`
}
