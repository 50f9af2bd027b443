package email

import (
	"context"

	"bolsafeucn/internal/logger"
)

// LogProvider используется, когда SMTP не настроен (локальная разработка, тесты):
// письмо рендерится и пишется в лог вместо отправки.
type LogProvider struct {
	renderer TemplateRenderer
}

func NewLogProvider(renderer TemplateRenderer) *LogProvider {
	return &LogProvider{renderer: renderer}
}

func (p *LogProvider) Send(ctx context.Context, email *Email) error {
	logger.CtxInfo(ctx, "📧 Email (not sent, SMTP disabled)", "to", email.To, "subject", email.Subject)
	return nil
}

func (p *LogProvider) SendTemplate(ctx context.Context, to []string, subject string, templateName string, data TemplateData) error {
	email := &Email{To: to, Subject: subject}
	if p.renderer != nil {
		body, err := p.renderer.Render(templateName, data)
		if err != nil {
			return err
		}
		email.HTMLBody = body
	}
	return p.Send(ctx, email)
}

func (p *LogProvider) Validate() error { return nil }
func (p *LogProvider) Close() error    { return nil }

// NewProvider выбирает SMTP или лог-провайдер в зависимости от наличия SMTP хоста.
func NewProvider(cfg *SMTPConfig, renderer TemplateRenderer) Provider {
	if cfg.Host == "" {
		return NewLogProvider(renderer)
	}
	return NewSMTPProvider(cfg, renderer)
}
