package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/shandysiswandi/datasprint/internal/identity/usecase"
	"github.com/shandysiswandi/datasprint/internal/pkg/instrument"
	"github.com/shandysiswandi/datasprint/internal/pkg/mail"
	"go.opentelemetry.io/otel/codes"
)

var otpTemplate = template.Must(template.New("otp").Parse(`<div style="font-family: monospace; padding: 20px; background: #000; color: #16a34a; border: 1px solid #16a34a;">
	<h2 style="color: #4ade80;">{{.Heading}}</h2>
	<p>{{.Intro}}</p>
	<p style="font-size: 1.2rem;">CODE: <span style="letter-spacing: 5px; font-weight: bold; color: #fff; background: #052e16; padding: 5px 10px;">{{.Code}}</span></p>
	<p>VALID_FOR: {{.Seconds}} SECONDS</p>
	<hr style="border-color: #16a34a;">
	<p style="font-size: 0.8rem; opacity: 0.7;">DATA_SPRINT_SECURE_NODE_AUTOMAIL</p>
</div>`))

type wording struct {
	subject string
	heading string
	intro   string
	text    string
}

var wordings = map[usecase.OTPMailKind]wording{
	usecase.OTPMailRegistration: {
		subject: "Email Verification OTP - DATASPRINT",
		heading: "VERIFICATION_CODE_GENERATED",
		intro:   "Use this code to verify your email and continue your team registration.",
		text:    "Your verification code is: %s. Valid for %s.",
	},
	usecase.OTPMailPasswordReset: {
		subject: "Password Reset OTP - DATASPRINT",
		heading: "SECURITY ALERT: PASSWORD RESET",
		intro:   "A request was made to reset your DATASPRINT password. If you did not request this, ignore this email.",
		text:    "Your OTP for password reset is: %s. Valid for %s.",
	},
	usecase.OTPMailPasswordChange: {
		subject: "Security Verification Code - DATASPRINT",
		heading: "SECURITY_VERIFICATION_REQUEST",
		intro:   "Someone (hopefully you) requested a security code for your account.",
		text:    "Your verification code is: %s. Valid for %s.",
	},
}

type Mail struct {
	client mail.Mail
	ins    instrument.Instrumentation
}

func New(client mail.Mail, ins instrument.Instrumentation) *Mail {
	return &Mail{client: client, ins: ins}
}

func (m *Mail) SendOTP(ctx context.Context, in usecase.OTPMail) error {
	ctx, span := m.ins.Tracer("identity.outbound.email").Start(ctx, "SendOTP")
	defer span.End()

	msg, err := composeOTP(in)
	if err == nil {
		err = m.client.Send(ctx, msg)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func composeOTP(in usecase.OTPMail) (mail.Message, error) {
	w, ok := wordings[in.Kind]
	if !ok {
		return mail.Message{}, fmt.Errorf("identity: unknown otp mail kind %d", in.Kind)
	}

	var html bytes.Buffer
	if err := otpTemplate.Execute(&html, map[string]any{
		"Heading": w.heading,
		"Intro":   w.intro,
		"Code":    in.Code,
		"Seconds": int(in.ValidFor.Seconds()),
	}); err != nil {
		return mail.Message{}, err
	}

	return mail.Message{
		To:       []string{in.To},
		Subject:  w.subject,
		TextBody: fmt.Sprintf(w.text, in.Code, humanMinutes(in.ValidFor.Minutes())),
		HTMLBody: html.String(),
	}, nil
}

func humanMinutes(m float64) string {
	if m == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%g minutes", m)
}
