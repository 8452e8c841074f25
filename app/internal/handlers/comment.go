package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/marketconnect/helpdesk-proxy/app/internal/ticket"
)

var (
	errUploadTooLarge = errors.New("Upload too large.")
	errBadForm        = errors.New("Invalid multipart form.")
)

// multipart parts above this size spill to temporary files
const formMemory = 8 << 20

// postComment posts a reply, uploading any attached files first.
func (h *Handler) postComment(w http.ResponseWriter, r *http.Request) error {
	cred, err := credential(r)
	if err != nil {
		return err
	}
	c, err := h.readComment(w, r)
	if err != nil {
		return err
	}
	out, err := h.comments.Post(r.Context(), cred, mux.Vars(r)["id"], c)
	if err != nil {
		return err
	}
	writeRaw(w, http.StatusOK, "", out)
	return nil
}

func (h *Handler) readComment(w http.ResponseWriter, r *http.Request) (ticket.Comment, error) {
	if r.ContentLength > h.opts.MaxUploadBytes {
		return ticket.Comment{}, NewError(http.StatusRequestEntityTooLarge, errUploadTooLarge)
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(formMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return ticket.Comment{}, NewError(http.StatusRequestEntityTooLarge, errUploadTooLarge)
		}
		return ticket.Comment{}, NewError(http.StatusBadRequest, errBadForm)
	}
	defer r.MultipartForm.RemoveAll()

	c := ticket.Comment{
		Body:     r.FormValue("body"),
		HTMLBody: r.FormValue("html_body"),
		Public:   true,
	}
	if v, ok := r.MultipartForm.Value["isPublic"]; ok && len(v) > 0 {
		c.Public = v[0] == "true"
	}

	for _, field := range []string{"files", "files[]"} {
		for _, fh := range r.MultipartForm.File[field] {
			f, err := readFile(fh)
			if err != nil {
				return ticket.Comment{}, err
			}
			c.Files = append(c.Files, f)
		}
	}
	return c, nil
}

func readFile(fh *multipart.FileHeader) (ticket.File, error) {
	src, err := fh.Open()
	if err != nil {
		return ticket.File{}, fmt.Errorf("opening %s: %w", fh.Filename, err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return ticket.File{}, fmt.Errorf("reading %s: %w", fh.Filename, err)
	}
	return ticket.File{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
