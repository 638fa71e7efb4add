// Package notify sends alert digests and confirmations over SMTP.
package notify

import (
	"fmt"
	"strings"

	gomail "gopkg.in/gomail.v2"

	"habita-engine/internal/domain"
)

// Mailer is what the alerts runner needs; tests swap in a recorder.
type Mailer interface {
	SendAlert(to, alertName string, listings []domain.Listing, advisory string) error
	SendConfirmation(to, alertName string) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type SMTPMailer struct {
	cfg SMTPConfig
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) SendAlert(to, alertName string, listings []domain.Listing, advisory string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", fmt.Sprintf("🏠 %d propiedades para \"%s\"", len(listings), alertName))
	msg.SetBody("text/html", alertHTML(alertName, listings, advisory))
	return m.dial(msg)
}

func (m *SMTPMailer) SendConfirmation(to, alertName string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", fmt.Sprintf("Alerta \"%s\" activada", alertName))
	msg.SetBody("text/html", confirmationHTML(alertName))
	return m.dial(msg)
}

func (m *SMTPMailer) dial(msg *gomail.Message) error {
	d := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	if err := d.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// alertHTML renders the digest: picked listings first when the annotator
// marked any, otherwise the first few results.
func alertHTML(alertName string, listings []domain.Listing, advisory string) string {
	shown := pickForDigest(listings, 5)

	var sb strings.Builder
	sb.WriteString(`<html><body style="font-family:Arial,sans-serif;max-width:640px;margin:0 auto">`)
	fmt.Fprintf(&sb, `<h2 style="color:#2c3e50">Resultados de tu alerta: %s</h2>`, htmlEscape(alertName))
	if advisory != "" {
		fmt.Fprintf(&sb, `<p style="background:#eef7ee;padding:10px;border-radius:6px">%s</p>`, htmlEscape(advisory))
	}

	for _, l := range shown {
		sb.WriteString(`<div style="border:1px solid #ddd;border-radius:8px;padding:12px;margin:10px 0">`)
		if l.InTopN {
			sb.WriteString(`<span style="background:#f39c12;color:#fff;padding:2px 8px;border-radius:4px;font-size:12px">DESTACADA</span> `)
		}
		fmt.Fprintf(&sb, `<b>%s</b><br>`, htmlEscape(l.Title))
		fmt.Fprintf(&sb, `%s · %s<br>`, htmlEscape(l.Neighborhood), htmlEscape(l.Source))
		fmt.Fprintf(&sb, `<span style="color:#27ae60;font-size:18px">%s</span>`, htmlEscape(l.PriceFormatted))
		if l.Area != nil {
			fmt.Fprintf(&sb, ` · %.0f m²`, *l.Area)
		}
		if l.AISummary != "" {
			fmt.Fprintf(&sb, `<p style="color:#555;margin:6px 0 0">%s</p>`, htmlEscape(l.AISummary))
		}
		if l.URL != "" {
			fmt.Fprintf(&sb, `<p style="margin:8px 0 0"><a href="%s">Ver propiedad</a></p>`, l.URL)
		}
		sb.WriteString(`</div>`)
	}

	if len(listings) > len(shown) {
		fmt.Fprintf(&sb, `<p style="color:#888">… y %d propiedades más.</p>`, len(listings)-len(shown))
	}
	sb.WriteString(`</body></html>`)
	return sb.String()
}

func confirmationHTML(alertName string) string {
	return fmt.Sprintf(`<html><body style="font-family:Arial,sans-serif">
<h2>Alerta activada</h2>
<p>Tu alerta <b>%s</b> quedó activa. Te escribiremos cuando encontremos propiedades que cumplan tus criterios.</p>
</body></html>`, htmlEscape(alertName))
}

// pickForDigest prefers annotator picks; falls back to the head of the
// already-sorted result list.
func pickForDigest(listings []domain.Listing, max int) []domain.Listing {
	var picked []domain.Listing
	for _, l := range listings {
		if l.InTopN {
			picked = append(picked, l)
		}
	}
	if len(picked) == 0 {
		picked = listings
	}
	if len(picked) > max {
		picked = picked[:max]
	}
	return picked
}

func htmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
