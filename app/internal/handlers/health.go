package handlers

import "net/http"

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) error {
	renderJSON(w, http.StatusOK, struct {
		OK bool  `json:"ok"`
		TS int64 `json:"ts"`
	}{true, h.now().UnixMilli()})
	return nil
}
