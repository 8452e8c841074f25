// Package ticket posts agent replies with attachments to a helpdesk ticket.
package ticket

import (
	"encoding/json"
	"errors"
	"strings"
)

// PlaceholderBody stands in for an empty reply that only carries attachments.
const PlaceholderBody = "Attachment(s) uploaded."

// ErrEmptyComment is returned for a reply with no text, no HTML and no files.
var ErrEmptyComment = errors.New("comment body is required")

// File is one attachment as received from the browser.
type File struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Comment is a reply to post on a ticket.
type Comment struct {
	Body     string
	HTMLBody string
	Public   bool
	Files    []File
}

// Validate rejects comments the helpdesk would refuse as empty.
func (c *Comment) Validate() error {
	if strings.TrimSpace(c.HTMLBody) == "" && strings.TrimSpace(c.Body) == "" && len(c.Files) == 0 {
		return ErrEmptyComment
	}
	return nil
}

type commentPayload struct {
	Body     string   `json:"body,omitempty"`
	HTMLBody string   `json:"html_body,omitempty"`
	Public   bool     `json:"public"`
	Uploads  []string `json:"uploads,omitempty"`
}

type ticketPayload struct {
	Ticket struct {
		Comment commentPayload `json:"comment"`
	} `json:"ticket"`
}

// BuildPayload renders the ticket update that adds c with the given upload tokens.
// HTML wins over plain text; an attachment-only reply gets PlaceholderBody.
func BuildPayload(c Comment, uploadTokens []string) ([]byte, error) {
	var p ticketPayload
	p.Ticket.Comment.Public = c.Public
	p.Ticket.Comment.Uploads = uploadTokens

	switch {
	case c.HTMLBody != "":
		p.Ticket.Comment.HTMLBody = c.HTMLBody
	case strings.TrimSpace(c.Body) != "":
		p.Ticket.Comment.Body = c.Body
	default:
		p.Ticket.Comment.Body = PlaceholderBody
	}
	return json.Marshal(p)
}
