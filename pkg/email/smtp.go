// pkg/email/smtp.go
package email

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"mime"
	"net/smtp"
)

// SMTPNotifier implements Notifier using SMTP
type SMTPNotifier struct {
	config   Config
	renderer *renderer
	auth     smtp.Auth
	send     func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPNotifier(config Config) (*SMTPNotifier, error) {
	r, err := newRenderer(config)
	if err != nil {
		return nil, err
	}
	var auth smtp.Auth
	if config.SMTPUsername != "" {
		auth = smtp.PlainAuth("", config.SMTPUsername, config.SMTPPassword, config.SMTPHost)
	}
	return &SMTPNotifier{config: config, renderer: r, auth: auth, send: smtp.SendMail}, nil
}

func (s *SMTPNotifier) SendTaskClaimed(ctx context.Context, owner Recipient, task TaskSummary, helperNickname string) error {
	return s.deliver(ctx, KindTaskClaimed, owner, task, helperNickname)
}

func (s *SMTPNotifier) SendAwaitingVerification(ctx context.Context, owner Recipient, task TaskSummary, helperNickname string) error {
	return s.deliver(ctx, KindAwaitingVerification, owner, task, helperNickname)
}

func (s *SMTPNotifier) SendTaskVerified(ctx context.Context, helper Recipient, task TaskSummary) error {
	return s.deliver(ctx, KindTaskVerified, helper, task, "")
}

func (s *SMTPNotifier) deliver(ctx context.Context, kind string, to Recipient, task TaskSummary, helper string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if to.Email == "" {
		return fmt.Errorf("send %s email: recipient has no address", kind)
	}
	msg, err := s.renderer.render(kind, to, task, helper)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", s.config.SMTPHost, s.config.SMTPPort)
	if err := s.send(addr, s.auth, s.config.FromEmail, []string{msg.To}, s.buildMIMEMessage(msg)); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// buildMIMEMessage builds a multipart message with text and HTML parts
func (s *SMTPNotifier) buildMIMEMessage(msg *Message) []byte {
	boundary := generateBoundary()
	return []byte(fmt.Sprintf("From: %s <%s>\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: multipart/alternative; boundary=\"%s\"\r\n"+
		"\r\n"+
		"--%s\r\n"+
		"Content-Type: text/plain; charset=UTF-8\r\n"+
		"Content-Transfer-Encoding: 8bit\r\n"+
		"\r\n"+
		"%s\r\n"+
		"--%s\r\n"+
		"Content-Type: text/html; charset=UTF-8\r\n"+
		"Content-Transfer-Encoding: 8bit\r\n"+
		"\r\n"+
		"%s\r\n"+
		"--%s--\r\n",
		mime.QEncoding.Encode("utf-8", s.config.FromName), s.config.FromEmail,
		msg.To,
		mime.QEncoding.Encode("utf-8", msg.Subject),
		boundary,
		boundary, msg.TextBody,
		boundary, msg.HTMLBody,
		boundary,
	))
}

func generateBoundary() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
