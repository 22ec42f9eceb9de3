package notify

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
	"time"
)

// Message is a rendered email.
type Message struct {
	Subject string
	Text    string
	HTML    string
}

type templateData struct {
	AppName  string
	Code     string
	Validity string
	Year     int
	Heading  string
	Intro    string
}

var textTemplate = texttemplate.Must(texttemplate.New("text").Parse(`Hello,

{{.Intro}}

Your code: {{.Code}}
The code is valid for {{.Validity}}.

Do not share this code with anyone.
If you did not request it, you can ignore this email.

- {{.AppName}}
`))

var htmlTemplate = htmltemplate.Must(htmltemplate.New("html").Parse(`<div style="margin:0;padding:0;background:#f6f8fc;">
  <table role="presentation" cellpadding="0" cellspacing="0" width="100%" style="background:#f6f8fc;padding:32px 12px;">
    <tr>
      <td align="center">
        <table role="presentation" cellpadding="0" cellspacing="0" width="600" style="max-width:600px;width:100%;">
          <tr>
            <td style="padding:12px 4px 18px 4px;font-family:Arial,Helvetica,sans-serif;font-size:14px;font-weight:700;color:#0f172a;">{{.AppName}}</td>
          </tr>
          <tr>
            <td style="background:#ffffff;border-radius:16px;overflow:hidden;">
              <div style="height:6px;background:#2563EB;"></div>
              <div style="padding:28px;font-family:Arial,Helvetica,sans-serif;">
                <div style="color:#0f172a;font-size:20px;font-weight:800;">{{.Heading}}</div>
                <div style="color:#475569;font-size:14px;line-height:1.7;margin-top:10px;">{{.Intro}}</div>
                <div style="margin:18px 0 8px 0;background:#f8fafc;border:1px solid #e2e8f0;border-radius:14px;padding:18px;text-align:center;">
                  <div style="font-family:monospace;font-size:32px;font-weight:800;letter-spacing:10px;color:#0f172a;">{{.Code}}</div>
                  <div style="font-size:12px;color:#64748b;margin-top:10px;">Valid for <b>{{.Validity}}</b>.</div>
                </div>
                <div style="font-size:13px;line-height:1.7;color:#475569;">Do not share this code with anyone, including support staff.</div>
              </div>
            </td>
          </tr>
          <tr>
            <td style="padding:16px 6px 0 6px;font-family:Arial,Helvetica,sans-serif;font-size:12px;color:#94a3b8;text-align:center;">&copy; {{.Year}} {{.AppName}}</td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</div>
`))

// Render builds the email for kind. validity is how long the code stays usable.
func Render(kind Kind, appName, code string, validity time.Duration) (*Message, error) {
	data := templateData{
		AppName:  appName,
		Code:     code,
		Validity: formatValidity(validity),
		Year:     time.Now().Year(),
	}

	var subject string
	switch kind {
	case KindVerifyEmail:
		subject = fmt.Sprintf("%s - Verify your email", appName)
		data.Heading = "Verify your email"
		data.Intro = fmt.Sprintf("Use the code below to finish creating your %s account.", appName)
	case KindResetPassword:
		subject = fmt.Sprintf("%s - Password reset code", appName)
		data.Heading = "Password reset code"
		data.Intro = fmt.Sprintf("We received a request to reset the password of your %s account.", appName)
	default:
		return nil, fmt.Errorf("unknown email kind %q", kind)
	}

	var text bytes.Buffer
	if err := textTemplate.Execute(&text, data); err != nil {
		return nil, fmt.Errorf("failed to render text body: %w", err)
	}

	var html bytes.Buffer
	if err := htmlTemplate.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("failed to render html body: %w", err)
	}

	return &Message{
		Subject: subject,
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}

func formatValidity(d time.Duration) string {
	minutes := int(d.Round(time.Minute) / time.Minute)
	if minutes == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}
