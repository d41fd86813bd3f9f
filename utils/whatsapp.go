package utils

import (
	"fmt"
	"strings"
	"time"

	"garuda/utils/logger"

	"github.com/go-resty/resty/v2"
)

// WhatsApp sends text messages through an HTTP gateway. A client without a
// URL only logs.
type WhatsApp struct {
	url    string
	token  string
	client *resty.Client
}

func NewWhatsApp(apiURL, token string) *WhatsApp {
	return &WhatsApp{
		url:    apiURL,
		token:  token,
		client: resty.New().SetTimeout(10 * time.Second).SetRetryCount(2),
	}
}

// Enabled reports whether a gateway is configured.
func (w *WhatsApp) Enabled() bool {
	return w != nil && w.url != ""
}

// NormalizePhone converts local Indonesian numbers (08...) to 628...
func NormalizePhone(phone string) string {
	p := strings.NewReplacer(" ", "", "-", "", "+", "").Replace(strings.TrimSpace(phone))
	if strings.HasPrefix(p, "0") {
		p = "62" + p[1:]
	}
	return p
}

func (w *WhatsApp) SendMessage(phone, text string) error {
	log := logger.Component("whatsapp")
	target := NormalizePhone(phone)
	if target == "" {
		return fmt.Errorf("empty phone number")
	}
	if !w.Enabled() {
		log.WithField("to", target).Info("gateway not configured, message skipped")
		return nil
	}

	resp, err := w.client.R().
		SetHeader("Authorization", w.token).
		SetFormData(map[string]string{
			"target":  target,
			"message": text,
		}).
		Post(w.url)
	if err != nil {
		log.WithError(err).WithField("to", target).Error("send failed")
		return err
	}
	if resp.IsError() {
		log.WithField("status", resp.StatusCode()).Error("gateway rejected message: " + resp.String())
		return fmt.Errorf("whatsapp gateway: status %d", resp.StatusCode())
	}
	return nil
}

// DefaultWhatsApp is used by SendWhatsAppAsync.
var DefaultWhatsApp = NewWhatsApp("", "")

// SendWhatsAppAsync sends in the background; failures are only logged.
func SendWhatsAppAsync(phone, text string) {
	if phone == "" {
		return
	}
	wa := DefaultWhatsApp
	go func() {
		_ = wa.SendMessage(phone, text)
	}()
}
