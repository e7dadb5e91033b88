package models

import (
	"slices"
	"time"
)

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

func (v Visibility) IsValid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

type Document struct {
	ID              string     `json:"id"`
	KnowledgeBaseID string     `json:"kb_id"`
	OwnerID         string     `json:"owner_id"`
	Name            string     `json:"name"`
	Size            int64      `json:"size"`
	ContentHash     string     `json:"content_hash"`
	Visibility      Visibility `json:"visibility"`
	ForcedDuplicate bool       `json:"forced_duplicate"`
	AuthorizedUsers []string   `json:"authorized_users"`
	CreatedAt       time.Time  `json:"created_at"`
}

func (d *Document) IsPrivate() bool {
	return d.Visibility == VisibilityPrivate
}

func (d *Document) IsAuthorized(userID string) bool {
	return slices.Contains(d.AuthorizedUsers, userID)
}

type DocumentPage struct {
	Limit  int
	Offset int
}

const MaxPageLimit = 100

func (p DocumentPage) IsValid() bool {
	return p.Limit >= 0 && p.Limit <= MaxPageLimit && p.Offset >= 0
}
