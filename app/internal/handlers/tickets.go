package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/tidwall/gjson"
)

var errBadTicketBody = errors.New("Ticket update must be a JSON object.")

// getTicket returns the ticket with users, organizations and groups side-loaded.
func (h *Handler) getTicket(w http.ResponseWriter, r *http.Request) error {
	cred, err := credential(r)
	if err != nil {
		return err
	}
	body, err := h.upstream.GetTicket(r.Context(), cred, mux.Vars(r)["id"])
	if err != nil {
		return err
	}
	writeRaw(w, http.StatusOK, "", body)
	return nil
}

func (h *Handler) updateTicket(w http.ResponseWriter, r *http.Request) error {
	cred, err := credential(r)
	if err != nil {
		return err
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes))
	if err != nil {
		return NewError(http.StatusRequestEntityTooLarge, err)
	}
	if len(body) == 0 {
		body = []byte("{}")
	}
	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsObject() {
		return NewError(http.StatusBadRequest, errBadTicketBody)
	}
	out, err := h.upstream.UpdateTicket(r.Context(), cred, mux.Vars(r)["id"], body)
	if err != nil {
		return err
	}
	writeRaw(w, http.StatusOK, "", out)
	return nil
}

func (h *Handler) listComments(w http.ResponseWriter, r *http.Request) error {
	cred, err := credential(r)
	if err != nil {
		return err
	}
	body, err := h.upstream.ListComments(r.Context(), cred, mux.Vars(r)["id"])
	if err != nil {
		return err
	}
	writeRaw(w, http.StatusOK, "", body)
	return nil
}
