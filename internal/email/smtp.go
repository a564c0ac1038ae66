package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"mime"
	"net/smtp"
	"strings"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

// mimeBoundary separates the text and HTML parts.
const mimeBoundary = "===============FINANZAS_BOUNDARY==============="

// headerSanitizer strips characters that would let user-controlled values
// such as an owner's display name start a new header.
var headerSanitizer = strings.NewReplacer("\r", "", "\n", "")

// SMTPEmailService sends emails via SMTP using templates embedded in the binary.
type SMTPEmailService struct {
	Links
	config     SMTPConfig
	inviteDays int
	templates  *template.Template
	logger     *slog.Logger

	// sendMail is smtp.SendMail; replaced in tests.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPEmailService creates a new SMTP-based email service. inviteTTL is
// quoted to recipients in whole days.
func NewSMTPEmailService(
	config SMTPConfig,
	baseURL string,
	inviteTTL time.Duration,
	logger *slog.Logger,
) (*SMTPEmailService, error) {
	if config.From == "" {
		config.From = DefaultFromEmail
	}
	if config.FromName == "" {
		config.FromName = DefaultFromName
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	templates, err := template.New("email").Funcs(emailTemplateFuncs()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	days := int(inviteTTL / (24 * time.Hour))
	if days < 1 {
		days = 1
	}

	return &SMTPEmailService{
		Links:      NewLinks(baseURL),
		config:     config,
		inviteDays: days,
		templates:  templates,
		logger:     logger,
		sendMail:   smtp.SendMail,
	}, nil
}

// SendShareInvitationEmail sends an account sharing invitation.
func (s *SMTPEmailService) SendShareInvitationEmail(ctx context.Context, to, ownerName, token string) error {
	inviteURL := s.InvitationURL(token)

	htmlBody, err := s.renderTemplate("share_invitation.html", map[string]interface{}{
		"OwnerName": ownerName,
		"InviteURL": inviteURL,
		"ValidDays": s.inviteDays,
	})
	if err != nil {
		return fmt.Errorf("failed to render invitation email template: %w", err)
	}

	textBody := fmt.Sprintf(`Hola,

%s quiere compartir su cuenta contigo. Abre el siguiente enlace para aceptar o rechazar la invitación:

%s

La invitación es válida por %d días.

Si no esperabas este correo, puedes ignorarlo.

El equipo de Finanzas
`, ownerName, inviteURL, s.inviteDays)

	return s.send(ctx, Email{
		To:       to,
		Subject:  fmt.Sprintf("%s compartió su cuenta contigo", ownerName),
		HTMLBody: htmlBody,
		TextBody: textBody,
	})
}

// send delivers one message. net/smtp has no context support, so ctx is
// only checked before dialing.
func (s *SMTPEmailService) send(ctx context.Context, email Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Mailhog and similar relays take no credentials
	var auth smtp.Auth
	if s.config.Username != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	if err := s.sendMail(s.config.Addr(), auth, s.config.From, []string{email.To}, s.buildMessage(email)); err != nil {
		s.logger.Error("failed to send email",
			"to", email.To,
			"error", err,
		)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("email sent", "to", email.To)
	return nil
}

// buildMessage renders a multipart/alternative message with text and HTML parts.
func (s *SMTPEmailService) buildMessage(email Email) []byte {
	var buf bytes.Buffer

	header := func(name, value string) {
		fmt.Fprintf(&buf, "%s: %s\r\n", name, headerSanitizer.Replace(value))
	}
	part := func(contentType, body string) {
		fmt.Fprintf(&buf, "--%s\r\nContent-Type: %s; charset=utf-8\r\n\r\n%s\r\n", mimeBoundary, contentType, body)
	}

	header("From", fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", s.config.FromName), s.config.From))
	header("To", email.To)
	header("Subject", mime.QEncoding.Encode("utf-8", email.Subject))
	header("MIME-Version", "1.0")
	header("Content-Type", fmt.Sprintf("multipart/alternative; boundary=%q", mimeBoundary))
	buf.WriteString("\r\n")

	part("text/plain", email.TextBody)
	part("text/html", email.HTMLBody)
	fmt.Fprintf(&buf, "--%s--\r\n", mimeBoundary)

	return buf.Bytes()
}

func (s *SMTPEmailService) renderTemplate(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func emailTemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"currentYear": func() int {
			return time.Now().Year()
		},
	}
}
