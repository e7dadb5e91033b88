package docs

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	errutil "kbdedup/internal/utils/http_errors"
	parseutil "kbdedup/internal/utils/parseLimit"
)

const documentsCountHeader = "X-Documents-Count"

func Head(ctx context.Context, log *slog.Logger, w http.ResponseWriter, r *http.Request, kbID string, dp DocumentProvider) {
	op := pkg + "Head"

	log = log.With(slog.String("op", op), slog.String("kb_id", kbID))

	requester, ok := requesterFrom(ctx)
	if !ok {
		errutil.WriteStatusError(w, http.StatusForbidden)
		return
	}

	page := parseutil.ParsePage(r.URL.Query().Get("limit"), r.URL.Query().Get("offset"))

	rawDocs, err := dp.ListDocuments(ctx, requester, kbID, page)
	if err != nil {
		log.Error("failed to list documents", slog.String("error", err.Error()))
		errutil.WriteStatusError(w, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(documentsCountHeader, fmt.Sprint(len(rawDocs)))
	w.WriteHeader(http.StatusOK)
}
