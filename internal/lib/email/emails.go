package email

import (
	"fmt"
	"strings"

	"github.com/pharmintel/pharmintel/internal/model"
)

// DigestEmailData is the template payload for a digest email.
type DigestEmailData struct {
	Significance string
	CreatedAt    string
	SummaryLines []string
	Events       []model.DigestEvent
}

// SendDigestEmail sends a change digest to the given recipients.
func (c *Client) SendDigestEmail(to []string, digest *model.Digest) error {
	data := DigestEmailData{
		Significance: digest.Significance,
		CreatedAt:    digest.CreatedAt.Format("Jan 2, 2006 15:04 MST"),
		SummaryLines: strings.Split(digest.Summary, "\n"),
		Events:       digest.Events,
	}

	subject := fmt.Sprintf("Drug intelligence digest (%s significance)", digest.Significance)

	return c.SendEmail(to, subject, TemplateDigest, data)
}
