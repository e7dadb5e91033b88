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
	parseutil "kbdedup/internal/utils/parseLimit"
)

func Get(ctx context.Context, log *slog.Logger, w http.ResponseWriter, r *http.Request, kbID string, dp DocumentProvider) {
	op := pkg + "Get"

	log = log.With(slog.String("op", op), slog.String("kb_id", kbID))

	requester, ok := requesterFrom(ctx)
	if !ok {
		log.Error("failed to get user from context")
		errutils.WriteJSONError(w, http.StatusForbidden, models.ErrForbidden.Error())
		return
	}

	page := parseutil.ParsePage(r.URL.Query().Get("limit"), r.URL.Query().Get("offset"))

	rawDocs, err := dp.ListDocuments(ctx, requester, kbID, page)
	if err != nil {
		if errors.Is(err, models.ErrInvalidParams) {
			errutils.WriteJSONError(w, http.StatusBadRequest, models.ErrInvalidParams.Error())
			return
		}
		log.Error("failed to list documents", slog.String("error", err.Error()))
		errutils.WriteJSONError(w, http.StatusInternalServerError, models.ErrInternal.Error())
		return
	}

	dtoDocs := make([]dto.DocumentResponse, 0, len(rawDocs))

	for _, doc := range rawDocs {
		dtoDocs = append(dtoDocs, *dto.ToDocumentResponse(doc))
	}

	response := map[string]any{
		"data": dto.DocumentListResponse{
			Data:  dtoDocs,
			Count: len(dtoDocs),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Error("failed to write response", slog.String("error", err.Error()))
	}
}

func Quota(ctx context.Context, log *slog.Logger, w http.ResponseWriter, qp QuotaProvider) {
	op := pkg + "Quota"

	log = log.With(slog.String("op", op))

	requester, ok := requesterFrom(ctx)
	if !ok {
		log.Error("failed to get user from context")
		errutils.WriteJSONError(w, http.StatusForbidden, models.ErrForbidden.Error())
		return
	}

	quota, err := qp.QuotaStatus(ctx, requester)
	if err != nil {
		log.Error("failed to get quota status", slog.String("error", err.Error()))
		errutils.WriteJSONError(w, http.StatusInternalServerError, models.ErrInternal.Error())
		return
	}

	response := map[string]any{
		"data": quota,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Error("failed to write response", slog.String("error", err.Error()))
	}
}

func GetByID(ctx context.Context, log *slog.Logger, w http.ResponseWriter, id string, dg DocumentGetter) {
	op := pkg + "GetByID"

	log = log.With(slog.String("op", op), slog.String("document_id", id))

	requester, ok := requesterFrom(ctx)
	if !ok {
		log.Error("failed to get user from context")
		errutils.WriteJSONError(w, http.StatusForbidden, models.ErrForbidden.Error())
		return
	}

	doc, err := dg.Document(ctx, requester, id)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrDocumentNotFound):
			errutils.WriteJSONError(w, http.StatusNotFound, models.ErrDocumentNotFound.Error())
		case errors.Is(err, models.ErrInvalidParams):
			errutils.WriteJSONError(w, http.StatusBadRequest, models.ErrInvalidParams.Error())
		default:
			log.Error("failed to get document", slog.String("error", err.Error()))
			errutils.WriteJSONError(w, http.StatusInternalServerError, models.ErrInternal.Error())
		}
		return
	}

	response := map[string]any{
		"data": dto.ToDocumentResponse(doc),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Error("failed to write response", slog.String("error", err.Error()))
	}
}
