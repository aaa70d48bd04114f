package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"
)

const otpSubject = "Your verification code"

var otpTemplate = template.Must(template.New("otp").Parse(`
	<h2>{{.Subject}}</h2>
	<p>Use the following code to continue: <strong>{{.Code}}</strong></p>
	<p>The code expires in a few minutes. If you did not request it, you can ignore this email.</p>
`))

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// MailGateway sends codes over SMTP.
type MailGateway struct {
	dialer dialer
	from   string
}

func NewMailGateway(host string, port int, user, password, from string) *MailGateway {
	return &MailGateway{
		dialer: gomail.NewDialer(host, port, user, password),
		from:   from,
	}
}

func (g *MailGateway) SendOTP(ctx context.Context, email, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var body bytes.Buffer
	if err := otpTemplate.Execute(&body, struct{ Subject, Code string }{otpSubject, code}); err != nil {
		return fmt.Errorf("render otp email: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", g.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", otpSubject)
	m.SetBody("text/html", body.String())

	if err := g.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send otp email: %w", err)
	}
	return nil
}
