// Package email provides an email sending client.
//
// It uses Resend (resend-go) as the provider and loads HTML templates from
// the filesystem to render email bodies.
package email

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/pkg/errors"
	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"

	"github.com/pharmintel/pharmintel/internal/config"
)

// Client wraps the Resend client. Enabled reports whether an API key was
// configured; with no key every send is a logged no-op so digest runs work
// in environments without email.
type Client struct {
	client *resend.Client
	from   string
	logger *zerolog.Logger
}

// NewClient creates an email Client from the integration config.
func NewClient(cfg *config.Config, logger *zerolog.Logger) *Client {
	var client *resend.Client
	if cfg.Integration.ResendAPIKey != "" {
		client = resend.NewClient(cfg.Integration.ResendAPIKey)
	}

	from := cfg.Integration.EmailFrom
	if from == "" {
		from = "PharmIntel <digests@resend.dev>"
	}

	return &Client{
		client: client,
		from:   from,
		logger: logger,
	}
}

// Enabled reports whether sends will actually reach the provider.
func (c *Client) Enabled() bool {
	return c.client != nil
}

// Render parses the named template from templates/emails and executes it
// with data, returning the HTML body.
func (c *Client) Render(templateName Template, data any) (string, error) {
	tmplPath := fmt.Sprintf("%s/%s.html", "templates/emails", templateName)

	tmpl, err := template.ParseFiles(tmplPath)
	if err != nil {
		return "", errors.Wrapf(err, "failed to parse email template %s", templateName)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return "", errors.Wrapf(err, "failed to execute email template %s", templateName)
	}

	return body.String(), nil
}

// SendEmail renders the named template with data and sends it to the
// given recipients as one message (recipients see each other; digest
// recipients are ops/analyst lists, not end-customer addresses).
func (c *Client) SendEmail(to []string, subject string, templateName Template, data any) error {
	body, err := c.Render(templateName, data)
	if err != nil {
		return err
	}

	if c.client == nil {
		c.logger.Info().
			Str("subject", subject).
			Int("recipients", len(to)).
			Msg("email sending disabled, skipping")
		return nil
	}

	params := &resend.SendEmailRequest{
		From:    c.from,
		To:      to,
		Subject: subject,
		Html:    body,
	}

	if _, err := c.client.Emails.Send(params); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
