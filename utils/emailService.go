package utils

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"garuda/config"
	"garuda/utils/logger"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Message is one outgoing email.
type Message struct {
	To      []string
	Subject string
	HTML    string
}

// Mailer delivers email messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SendgridMailer delivers through the SendGrid v3 API.
type SendgridMailer struct {
	client *sendgrid.Client
	from   *sgmail.Email
}

func NewSendgridMailer(apiKey, senderName, senderEmail string) *SendgridMailer {
	return &SendgridMailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   sgmail.NewEmail(senderName, senderEmail),
	}
}

func (m *SendgridMailer) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return errors.New("email has no recipients")
	}

	p := sgmail.NewPersonalization()
	p.Subject = msg.Subject
	for _, to := range msg.To {
		p.AddTos(sgmail.NewEmail("", to))
	}

	v3 := sgmail.NewV3Mail()
	v3.SetFrom(m.from)
	v3.AddPersonalizations(p)
	v3.AddContent(sgmail.NewContent("text/html", msg.HTML))

	resp, err := m.client.SendWithContext(ctx, v3)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// LogMailer only logs messages. Used in development and tests.
type LogMailer struct {
	mu   sync.Mutex
	Sent []Message
	// Fail makes Send return an error for the listed addresses.
	Fail map[string]bool
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, to := range msg.To {
		if m.Fail[strings.ToLower(to)] {
			return fmt.Errorf("delivery to %s failed", to)
		}
	}
	m.Sent = append(m.Sent, msg)
	logger.Component("mailer").WithFields(map[string]interface{}{
		"to":      strings.Join(msg.To, ","),
		"subject": msg.Subject,
	}).Info("email logged")
	return nil
}

// Messages returns a copy of what was sent so far.
func (m *LogMailer) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.Sent...)
}

// NewMailer picks the provider configured by MAIL_PROVIDER.
func NewMailer(cfg *config.Config) Mailer {
	if cfg.MailProvider == "sendgrid" && cfg.SendgridAPIKey != "" {
		return NewSendgridMailer(cfg.SendgridAPIKey, cfg.EmailSenderName, cfg.EmailSender)
	}
	return &LogMailer{}
}

// DefaultMailer is used by the Send* helpers below.
var DefaultMailer Mailer = &LogMailer{}

// SendEmail delivers in the background and logs failures.
func SendEmail(to []string, subject, htmlBody string) {
	msg := Message{To: to, Subject: subject, HTML: htmlBody}
	mailer := DefaultMailer
	go func() {
		if err := mailer.Send(context.Background(), msg); err != nil {
			logger.Component("mailer").WithError(err).WithField("subject", subject).Error("send email failed")
		}
	}()
}

func appName() string {
	if config.AppConfig != nil && config.AppConfig.AppName != "" {
		return config.AppConfig.AppName
	}
	return "Garuda Academy"
}

// WrapEmail places body inside the shared HTML layout.
func WrapEmail(title, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F4F6F8; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; }
			.header { background-color: #8B1E1E; padding: 28px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 22px; letter-spacing: 1px; }
			.content { padding: 36px 30px; color: #222222; line-height: 1.6; }
			.footer { background-color: #F4F6F8; padding: 18px; text-align: center; font-size: 12px; color: #666666; }
			.info-box { background: #FFF6E5; padding: 15px; border-radius: 4px; border-left: 4px solid #E0A526; margin: 20px 0; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header"><h1>%s</h1></div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
			<div class="footer">&copy; %s. Semua hak dilindungi.</div>
		</div>
	</body>
	</html>
	`, strings.ToUpper(appName()), title, bodyContent, appName())
}

func SendWelcomeEmail(email, name string) {
	body := fmt.Sprintf(`
		<p>Halo %s,</p>
		<p>Selamat datang di <strong>%s</strong>! Akun Anda sudah aktif.</p>
		<p>Jelajahi program pelatihan kami dan daftar ke kelas yang Anda minati.</p>
	`, name, appName())
	SendEmail([]string{email}, "Selamat datang di "+appName(), WrapEmail("Selamat Datang!", body))
}

func SendEnrollmentReceivedEmail(email, name, programTitle string) {
	body := fmt.Sprintf(`
		<p>Halo %s,</p>
		<p>Pendaftaran Anda untuk program <strong>%s</strong> sudah kami terima dan sedang ditinjau.</p>
		<div class="info-box">Selesaikan pembayaran agar pendaftaran dapat segera disetujui.</div>
	`, name, programTitle)
	SendEmail([]string{email}, "Pendaftaran diterima: "+programTitle, WrapEmail("Pendaftaran Diterima", body))
}

func SendEnrollmentApprovedEmail(email, name, programTitle string) {
	body := fmt.Sprintf(`
		<p>Halo %s,</p>
		<p>Pendaftaran Anda untuk program <strong>%s</strong> telah <strong>disetujui</strong>.</p>
		<p>Materi pembelajaran kini dapat diakses dari dashboard Anda.</p>
	`, name, programTitle)
	SendEmail([]string{email}, "Pendaftaran disetujui: "+programTitle, WrapEmail("Pendaftaran Disetujui", body))
}

func SendCertificateIssuedEmail(email, name, programTitle, number string) {
	verifyURL := ""
	if config.AppConfig != nil {
		verifyURL = strings.TrimRight(config.AppConfig.AppURL, "/") + "/certificates/verify/" + number
	}
	body := fmt.Sprintf(`
		<p>Halo %s,</p>
		<p>Selamat! Sertifikat untuk program <strong>%s</strong> telah terbit.</p>
		<div class="info-box">Nomor sertifikat: <strong>%s</strong><br>Verifikasi: %s</div>
	`, name, programTitle, number, verifyURL)
	SendEmail([]string{email}, "Sertifikat terbit: "+programTitle, WrapEmail("Sertifikat Anda", body))
}

func SendDueReminderEmail(email, name, title string, due time.Time) {
	body := fmt.Sprintf(`
		<p>Halo %s,</p>
		<p>Materi <strong>%s</strong> harus diselesaikan sebelum <strong>%s</strong>.</p>
		<p>Jangan lupa menyelesaikannya tepat waktu.</p>
	`, name, title, due.Format("02 Jan 2006 15:04"))
	SendEmail([]string{email}, "Pengingat tenggat: "+title, WrapEmail("Pengingat Tenggat", body))
}
