// Package email delivers transactional mail for the finance API: SMTP in
// deployed environments (Mailhog locally) or a logging stand-in.
package email

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
)

const (
	// DefaultFromEmail is the default sender email for transactional emails.
	DefaultFromEmail = "noreply@finanzas.app"

	// DefaultFromName is the default sender display name.
	DefaultFromName = "Finanzas"
)

// EmailService sends transactional emails.
type EmailService interface {
	// SendShareInvitationEmail sends an account sharing invitation carrying
	// the raw token in its link. ownerName is the sharer's name or email.
	SendShareInvitationEmail(ctx context.Context, to, ownerName, token string) error

	// InvitationURL returns the link a recipient opens to answer an invitation.
	InvitationURL(token string) string
}

// Email represents a single email message.
type Email struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string // Plain text fallback
}

// SMTPConfig holds SMTP server configuration. Username and Password stay
// empty for relays without auth such as Mailhog.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// Addr returns host:port for net/smtp.
func (c SMTPConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate reports configuration that can never deliver mail.
func (c SMTPConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("smtp host is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("smtp port out of range: %d", c.Port)
	}
	if (c.Username == "") != (c.Password == "") {
		return fmt.Errorf("smtp username and password must be set together")
	}
	return nil
}

// Links builds public URLs into the web app.
type Links struct {
	baseURL string
}

// NewLinks creates a link builder rooted at baseURL.
func NewLinks(baseURL string) Links {
	return Links{baseURL: strings.TrimSuffix(baseURL, "/")}
}

// InvitationURL returns the page that lets the recipient accept or decline.
func (l Links) InvitationURL(token string) string {
	return l.baseURL + "/invitaciones/" + token
}

// LogEmailService logs messages instead of sending them. The raw token is
// never logged; only the recipient and owner are.
type LogEmailService struct {
	Links
	logger *slog.Logger
}

// NewLogEmailService creates the logging stand-in.
func NewLogEmailService(baseURL string, logger *slog.Logger) *LogEmailService {
	return &LogEmailService{Links: NewLinks(baseURL), logger: logger}
}

// SendShareInvitationEmail implements EmailService.
func (s *LogEmailService) SendShareInvitationEmail(ctx context.Context, to, ownerName, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.logger.Info("share invitation email suppressed",
		"to", to,
		"owner", ownerName,
	)
	return nil
}

var (
	_ EmailService = (*SMTPEmailService)(nil)
	_ EmailService = (*LogEmailService)(nil)
)
