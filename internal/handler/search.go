package handler

import (
	"net/http"

	"github.com/kotoba-dev/kotoba/internal/utils"
)

// Search serves the "latest relevant post" view. Empty queries are rejected
// rather than returning the whole board.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "Missing query parameter q", http.StatusBadRequest)
		return
	}

	page, err := h.listing.Search(r.Context(), query, parsePage(r))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, page)
}
