package email

import (
	"bytes"
	"fmt"
	"html/template"
)

// Notice is a titled message with optional key/value details
type Notice struct {
	Title   string
	Message string
	Details []Detail
	Footer  string
}

type Detail struct {
	Label string
	Value string
}

var noticeTemplate = template.Must(template.New("notice").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #1F4E79; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
        .content { padding: 20px; background: #f9f9f9; border: 1px solid #ddd; border-top: none; }
        .message { background: white; padding: 15px; border-left: 4px solid #1F4E79; margin: 10px 0; white-space: pre-wrap; }
        .data-item { padding: 8px; background: white; margin: 5px 0; border-radius: 3px; }
        .label { font-weight: bold; color: #555; }
        .footer { padding: 15px; text-align: center; font-size: 12px; color: #666; background: #f0f0f0; border-radius: 0 0 5px 5px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header"><h2>{{.Title}}</h2></div>
        <div class="content">
            <div class="message">{{.Message}}</div>
            {{range .Details}}<div class="data-item"><span class="label">{{.Label}}:</span> {{.Value}}</div>
            {{end}}
        </div>
        <div class="footer"><p>{{if .Footer}}{{.Footer}}{{else}}Adwelink AMS - Automated Notification{{end}}</p></div>
    </div>
</body>
</html>`))

// RenderNotice renders a Notice as an HTML email body
func RenderNotice(n Notice) (string, error) {
	var buf bytes.Buffer
	if err := noticeTemplate.Execute(&buf, n); err != nil {
		return "", fmt.Errorf("failed to render email: %w", err)
	}
	return buf.String(), nil
}
