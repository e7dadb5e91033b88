package docs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"kbdedup/internal/dto"
	"kbdedup/internal/models"
	errutils "kbdedup/internal/utils/http_errors"
)

const maxMultipartMemory = 10 << 20

func Upload(ctx context.Context, log *slog.Logger, w http.ResponseWriter, r *http.Request, kbID string, maxBytes int64, du DocumentUploader) {
	op := pkg + "Upload"

	log = log.With(slog.String("op", op), slog.String("kb_id", kbID))

	requester, ok := requesterFrom(ctx)
	if !ok {
		log.Error("failed to get user from context")
		errutils.WriteJSONError(w, http.StatusForbidden, models.ErrForbidden.Error())
		return
	}

	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			log.Warn("upload too large", slog.Int64("limit", tooLarge.Limit))
			errutils.WriteJSONError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		log.Error("failed to parse multipart form", slog.String("error", err.Error()))
		errutils.WriteJSONError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	var meta dto.UploadMeta

	if metaPart := r.FormValue("meta"); metaPart != "" {
		if err := json.Unmarshal([]byte(metaPart), &meta); err != nil {
			log.Error("failed to unmarshal meta", slog.String("error", err.Error()))
			errutils.WriteJSONError(w, http.StatusBadRequest, "invalid meta json")
			return
		}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		log.Warn("missing file part", slog.String("error", err.Error()))
		errutils.WriteJSONError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	name := meta.Name
	if name == "" {
		name = header.Filename
	}

	req := models.UploadRequest{
		KnowledgeBaseID: kbID,
		Uploader:        *requester,
		Name:            name,
		Visibility:      models.Visibility(meta.Visibility),
		Force:           meta.Force,
		DryRun:          meta.DryRun,
	}

	verdict, err := du.Decide(ctx, req, file)
	if err != nil {
		if errors.Is(err, models.ErrInvalidParams) {
			log.Warn("invalid upload", slog.String("error", err.Error()))
			errutils.WriteJSONError(w, http.StatusBadRequest, models.ErrInvalidParams.Error())
			return
		}
		log.Error("failed to decide upload", slog.String("error", err.Error()))
		errutils.WriteJSONError(w, http.StatusInternalServerError, models.ErrInternal.Error())
		return
	}

	status := StatusFor(verdict)
	if verdict.Retryable {
		w.Header().Set("Retry-After", "1")
	}

	response := map[string]any{
		"data": dto.ToVerdictResponse(verdict),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Error("failed to write response", slog.String("error", err.Error()))
	}
}

// StatusFor maps a verdict onto an HTTP status.
func StatusFor(v *models.Verdict) int {
	switch v.Action {
	case models.ActionCreate:
		if v.DryRun {
			return http.StatusOK
		}
		return http.StatusCreated
	case models.ActionReuseExisting:
		return http.StatusOK
	}

	switch v.ErrorKind {
	case models.ErrKindDuplicateVisibleConflict:
		return http.StatusConflict
	case models.ErrKindQuotaExceeded:
		return http.StatusForbidden
	case models.ErrKindStorageConflict, models.ErrKindLockTimeout:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
