package entities

import "time"

type Document struct {
	ID              string    `db:"id"`
	KnowledgeBaseID string    `db:"knowledge_base_id"`
	OwnerID         string    `db:"owner_id"`
	Name            string    `db:"name"`
	Size            int64     `db:"size"`
	ContentHash     string    `db:"content_hash"`
	Visibility      string    `db:"visibility"`
	ForcedDuplicate bool      `db:"forced_duplicate"`
	CreatedAt       time.Time `db:"created_at"`
}

type Grant struct {
	DocumentID string `db:"document_id"`
	UserID     string `db:"user_id"`
}
