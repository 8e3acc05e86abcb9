package notification

import (
	"fmt"
	"net/smtp"
	"strings"
)

// MailConfig 邮件配置
type MailConfig struct {
	Host     string `env:"MAIL_HOST"`
	Port     int    `env:"MAIL_PORT"`
	Username string `env:"MAIL_USERNAME"`
	Password string `env:"MAIL_PASSWORD"`
	From     string `env:"MAIL_FROM"`
}

type MailNotification struct {
	cfg MailConfig
}

func NewMailNotification(cfg MailConfig) *MailNotification {
	return &MailNotification{cfg: cfg}
}

// SendWelcomeEmail 发送注册欢迎邮件
func (m *MailNotification) SendWelcomeEmail(to, displayName, verifyURL string) error {
	subject := "Welcome to WildVoice"
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\nWelcome to WildVoice. You can now clone voices, generate speech and transcribe audio.\r\n\r\nVerify your email: %s\r\n",
		displayName, verifyURL,
	)
	return m.send(to, subject, body)
}

func (m *MailNotification) send(to, subject, body string) error {
	if m.cfg.Host == "" {
		return fmt.Errorf("mail host not configured")
	}
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	msg := strings.Join([]string{
		"From: " + m.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
		"",
		body,
	}, "\r\n")

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	return smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg))
}
