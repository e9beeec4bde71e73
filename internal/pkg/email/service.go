package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"sync"

	"github.com/rs/zerolog/log"
)

// Sender delivers a rendered message
type Sender interface {
	Send(ctx context.Context, msg *EmailMessage) error
}

// Service renders templates and sends them through a background worker
type Service struct {
	sender       Sender
	templates    map[string]*template.Template
	baseTemplate *template.Template
	queue        chan *QueuedEmail
	wg           sync.WaitGroup
}

// QueuedEmail represents an email in the send queue
type QueuedEmail struct {
	To           string
	Subject      string
	TemplateName string
	Data         interface{}
}

// NewService creates email service backed by SendGrid
func NewService(config SendGridConfig) *Service {
	return NewServiceWithSender(NewSendGridClient(config))
}

// NewServiceWithSender creates email service with a custom sender
func NewServiceWithSender(sender Sender) *Service {
	s := &Service{
		sender:    sender,
		templates: make(map[string]*template.Template),
		queue:     make(chan *QueuedEmail, 100),
	}

	s.baseTemplate = template.Must(template.New("base").Parse(BaseTemplate))
	s.templates["sign_in_code"] = template.Must(template.New("sign_in_code").Parse(SignInCodeTemplate))
	s.templates["report_status"] = template.Must(template.New("report_status").Parse(ReportStatusTemplate))

	s.wg.Add(1)
	go s.worker()

	return s
}

// worker processes queued emails asynchronously
func (s *Service) worker() {
	defer s.wg.Done()

	for email := range s.queue {
		if err := s.send(context.Background(), email); err != nil {
			log.Error().Err(err).
				Str("to", email.To).
				Str("template", email.TemplateName).
				Msg("Failed to send email")
		}
	}
}

func (s *Service) send(ctx context.Context, email *QueuedEmail) error {
	tmpl, ok := s.templates[email.TemplateName]
	if !ok {
		return fmt.Errorf("template %s not found", email.TemplateName)
	}

	var contentBuf bytes.Buffer
	if err := tmpl.Execute(&contentBuf, email.Data); err != nil {
		return err
	}

	var htmlBuf bytes.Buffer
	if err := s.baseTemplate.Execute(&htmlBuf, map[string]interface{}{
		"Content": template.HTML(contentBuf.String()),
	}); err != nil {
		return err
	}

	return s.sender.Send(ctx, &EmailMessage{
		To:          email.To,
		Subject:     email.Subject,
		HTMLContent: htmlBuf.String(),
	})
}

// Queue adds an email to the async send queue
func (s *Service) Queue(to, templateName, subject string, data interface{}) {
	select {
	case s.queue <- &QueuedEmail{To: to, Subject: subject, TemplateName: templateName, Data: data}:
	default:
		log.Warn().Str("to", to).Msg("Email queue full, dropping email")
	}
}

// SendSync sends an email synchronously (blocking)
func (s *Service) SendSync(ctx context.Context, to, templateName, subject string, data interface{}) error {
	return s.send(ctx, &QueuedEmail{To: to, Subject: subject, TemplateName: templateName, Data: data})
}

// Close stops the email worker after draining the queue
func (s *Service) Close() {
	close(s.queue)
	s.wg.Wait()
}

// SendSignInCode delivers a one-time sign-in code
func (s *Service) SendSignInCode(ctx context.Context, to, code string, expiresInMinutes int) error {
	return s.SendSync(ctx, to, "sign_in_code", "Your MineWatch sign-in code", map[string]interface{}{
		"Code":             code,
		"ExpiresInMinutes": expiresInMinutes,
	})
}

// SendReportStatus notifies a reporter that their report changed status
func (s *Service) SendReportStatus(to, title, status string) {
	s.Queue(to, "report_status", "Your MineWatch report was updated", map[string]string{
		"Title":  title,
		"Status": status,
	})
}
