package dto

import (
	"time"

	"kbdedup/internal/models"
)

type UploadMeta struct {
	Name       string `json:"name"`
	Visibility string `json:"visibility"`
	Force      bool   `json:"force"`
	DryRun     bool   `json:"dry_run"`
}

type DocumentResponse struct {
	ID              string    `json:"id"`
	KnowledgeBaseID string    `json:"kb_id"`
	OwnerID         string    `json:"owner_id"`
	Name            string    `json:"name"`
	Size            int64     `json:"size"`
	ContentHash     string    `json:"content_hash"`
	Visibility      string    `json:"visibility"`
	ForcedDuplicate bool      `json:"forced_duplicate,omitempty"`
	Created         time.Time `json:"created"`
}

type VerdictResponse struct {
	Action               string             `json:"action"`
	State                string             `json:"state"`
	Branch               string             `json:"branch,omitempty"`
	Document             *DocumentResponse  `json:"document,omitempty"`
	Error                string             `json:"error,omitempty"`
	Message              string             `json:"message,omitempty"`
	Quota                *models.QuotaUsage `json:"quota,omitempty"`
	RequiresConfirmation bool               `json:"requires_confirmation,omitempty"`
	DryRun               bool               `json:"dry_run,omitempty"`
}

type DocumentListResponse struct {
	Data  []DocumentResponse `json:"data"`
	Count int                `json:"count"`
}

func ToDocumentResponse(doc *models.Document) *DocumentResponse {
	if doc == nil {
		return nil
	}

	return &DocumentResponse{
		ID:              doc.ID,
		KnowledgeBaseID: doc.KnowledgeBaseID,
		OwnerID:         doc.OwnerID,
		Name:            doc.Name,
		Size:            doc.Size,
		ContentHash:     doc.ContentHash,
		Visibility:      string(doc.Visibility),
		ForcedDuplicate: doc.ForcedDuplicate,
		Created:         doc.CreatedAt,
	}
}

func ToVerdictResponse(v *models.Verdict) VerdictResponse {
	return VerdictResponse{
		Action:               string(v.Action),
		State:                string(v.State),
		Branch:               string(v.Branch),
		Document:             ToDocumentResponse(v.Document),
		Error:                string(v.ErrorKind),
		Message:              v.Message,
		Quota:                v.Quota,
		RequiresConfirmation: v.RequiresConfirmation,
		DryRun:               v.DryRun,
	}
}
