package utils

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/cristophermlima/pierce-hub-suite-sub001/config"
	"github.com/cristophermlima/pierce-hub-suite-sub001/models"
)

type EmailData struct {
	Subject  string
	To       []string
	Template string
	Data     interface{}
}

// Embedded email templates
var emailTemplates = map[string]string{
	"otp": `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { color: #2c3e50; border-bottom: 1px solid #eee; padding-bottom: 10px; }
        .otp-code { font-size: 24px; font-weight: bold; color: #3498db; margin: 20px 0; text-align: center; }
        .footer { margin-top: 30px; font-size: 12px; color: #7f8c8d; text-align: center; }
    </style>
</head>
<body>
    <div class="header"><h2>Your Verification Code</h2></div>
    <div class="content">
        <p>Hello,</p>
        <p>Here is your one-time verification code:</p>
        <div class="otp-code">{{.OTP}}</div>
        <p>This code will expire in 15 minutes. Please don't share this code with anyone.</p>
    </div>
    <div class="footer">
        <p>If you didn't request this code, you can safely ignore this email.</p>
        <p>© {{.Year}} PierceHub. All rights reserved.</p>
    </div>
</body>
</html>`,

	"appointment_confirmation": `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { color: #2c3e50; border-bottom: 1px solid #eee; padding-bottom: 10px; }
        .detail { background: #f8f9fa; padding: 15px; border-radius: 4px; margin: 20px 0; }
        .footer { margin-top: 30px; font-size: 12px; color: #7f8c8d; text-align: center; }
    </style>
</head>
<body>
    <div class="header"><h2>Appointment Confirmed</h2></div>
    <div class="content">
        <p>Hi {{.ClientName}},</p>
        <p>Your appointment at {{.StudioName}} is confirmed:</p>
        <div class="detail">
            <p><strong>Service:</strong> {{.ServiceName}}</p>
            <p><strong>Date:</strong> {{.StartsAt}}</p>
        </div>
        <p>Please arrive 10 minutes early and bring a photo ID.</p>
    </div>
    <div class="footer"><p>© {{.Year}} PierceHub. All rights reserved.</p></div>
</body>
</html>`,

	"appointment_reminder": `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { color: #2c3e50; border-bottom: 1px solid #eee; padding-bottom: 10px; }
        .detail { background: #f8f9fa; padding: 15px; border-radius: 4px; margin: 20px 0; }
        .footer { margin-top: 30px; font-size: 12px; color: #7f8c8d; text-align: center; }
    </style>
</head>
<body>
    <div class="header"><h2>See You Soon</h2></div>
    <div class="content">
        <p>Hi {{.ClientName}},</p>
        <p>This is a reminder of your upcoming appointment:</p>
        <div class="detail">
            <p><strong>Service:</strong> {{.ServiceName}}</p>
            <p><strong>Date:</strong> {{.StartsAt}}</p>
        </div>
    </div>
    <div class="footer"><p>© {{.Year}} PierceHub. All rights reserved.</p></div>
</body>
</html>`,

	"team_invite": `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { color: #2c3e50; border-bottom: 1px solid #eee; padding-bottom: 10px; }
        .button { display: inline-block; padding: 10px 20px; background-color: #3498db; color: white; text-decoration: none; border-radius: 4px; }
        .footer { margin-top: 30px; font-size: 12px; color: #7f8c8d; text-align: center; }
    </style>
</head>
<body>
    <div class="header"><h2>You've Been Invited</h2></div>
    <div class="content">
        <p>Hello,</p>
        <p>{{.StudioName}} invited you to join their team on PierceHub as <strong>{{.Role}}</strong>.</p>
        <p><a class="button" href="{{.InviteLink}}">Accept Invitation</a></p>
    </div>
    <div class="footer"><p>© {{.Year}} PierceHub. All rights reserved.</p></div>
</body>
</html>`,

	"birthday": `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { color: #2c3e50; border-bottom: 1px solid #eee; padding-bottom: 10px; }
        .footer { margin-top: 30px; font-size: 12px; color: #7f8c8d; text-align: center; }
    </style>
</head>
<body>
    <div class="header"><h2>¡Feliz cumpleaños, {{.ClientName}}!</h2></div>
    <div class="content">
        <p>Este mes tienes una recompensa esperándote en {{.StudioName}}{{if .Discount}}: {{.Discount}}% de descuento{{end}}.</p>
        <p>Ven a visitarnos y reclámala.</p>
    </div>
    <div class="footer"><p>© {{.Year}} PierceHub. All rights reserved.</p></div>
</body>
</html>`,
}

// Mailer sends transactional studio email over SMTP
type Mailer struct {
	dialer *gomail.Dialer
	from   string
	logger *log.Logger
}

func NewMailer(logger *log.Logger) *Mailer {
	cfg := config.AppConfig
	return &Mailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
		from:   fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromEmail),
		logger: logger,
	}
}

func (m *Mailer) Send(data EmailData) error {
	tmplContent, ok := emailTemplates[data.Template]
	if !ok {
		return fmt.Errorf("template '%s' not found", data.Template)
	}

	tmpl, err := template.New("email").Parse(tmplContent)
	if err != nil {
		return fmt.Errorf("error parsing template: %w", err)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data.Data); err != nil {
		return fmt.Errorf("error executing template: %w", err)
	}

	return m.SendHTML(data.To, data.Subject, body.String())
}

// SendHTML sends a pre-rendered HTML body (used for studio-authored
// aftercare templates).
func (m *Mailer) SendHTML(to []string, subject, html string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("error sending email: %w", err)
	}
	return nil
}

func (m *Mailer) SendOTPEmail(email, otp string) error {
	return m.Send(EmailData{
		Subject:  "Your Verification Code",
		To:       []string{email},
		Template: "otp",
		Data: map[string]interface{}{
			"OTP":  otp,
			"Year": time.Now().Year(),
		},
	})
}

func (m *Mailer) SendAppointmentConfirmation(client models.Client, appointment models.Appointment, studioName string) error {
	return m.Send(EmailData{
		Subject:  "Your appointment is confirmed",
		To:       []string{client.Email},
		Template: "appointment_confirmation",
		Data: map[string]interface{}{
			"ClientName":  client.Name,
			"StudioName":  studioName,
			"ServiceName": appointment.ServiceName,
			"StartsAt":    appointment.StartsAt.Format("Mon, 02 Jan 2006 15:04"),
			"Year":        time.Now().Year(),
		},
	})
}

func (m *Mailer) SendAppointmentReminder(client models.Client, appointment models.Appointment) error {
	return m.Send(EmailData{
		Subject:  "Reminder: upcoming appointment",
		To:       []string{client.Email},
		Template: "appointment_reminder",
		Data: map[string]interface{}{
			"ClientName":  client.Name,
			"ServiceName": appointment.ServiceName,
			"StartsAt":    appointment.StartsAt.Format("Mon, 02 Jan 2006 15:04"),
			"Year":        time.Now().Year(),
		},
	})
}

func (m *Mailer) SendTeamInvite(email, studioName, role, inviteLink string) error {
	return m.Send(EmailData{
		Subject:  fmt.Sprintf("%s invited you to PierceHub", studioName),
		To:       []string{email},
		Template: "team_invite",
		Data: map[string]interface{}{
			"StudioName": studioName,
			"Role":       role,
			"InviteLink": inviteLink,
			"Year":       time.Now().Year(),
		},
	})
}

func (m *Mailer) SendBirthdayGreeting(client models.Client, studioName string, discount *float64) error {
	data := map[string]interface{}{
		"ClientName": client.Name,
		"StudioName": studioName,
		"Year":       time.Now().Year(),
	}
	if discount != nil {
		data["Discount"] = fmt.Sprintf("%.0f", *discount)
	}
	return m.Send(EmailData{
		Subject:  "¡Feliz cumpleaños! 🎉",
		To:       []string{client.Email},
		Template: "birthday",
		Data:     data,
	})
}

// SendAftercare renders a studio-authored aftercare template and sends it.
func (m *Mailer) SendAftercare(client models.Client, appointment models.Appointment, tpl models.AftercareTemplate) error {
	parsed, err := template.New("aftercare").Parse(tpl.Body)
	if err != nil {
		return fmt.Errorf("error parsing aftercare template %d: %w", tpl.ID, err)
	}

	var body bytes.Buffer
	err = parsed.Execute(&body, map[string]interface{}{
		"ClientName":  client.Name,
		"ServiceName": appointment.ServiceName,
		"Procedure":   appointment.ProcedureType,
	})
	if err != nil {
		return fmt.Errorf("error executing aftercare template %d: %w", tpl.ID, err)
	}

	return m.SendHTML([]string{client.Email}, tpl.Subject, body.String())
}
