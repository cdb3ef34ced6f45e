package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	subjectFollowUpReminder = "Pengingat: jadwal follow-up hari ini"
	subjectLeadWentCold     = "Lead otomatis ditandai COLD"
)

type baseEmailData struct {
	Title   string
	Heading string
}

type reminderEmailData struct {
	baseEmailData
	UserName      string
	LeadName      string
	LeadPhone     string
	StageName     string
	ScheduledDate string
}

type leadColdEmailData struct {
	baseEmailData
	UserName string
	LeadName string
}

func renderEmailTemplate(name string, data interface{}) (string, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/"+name)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render email template %s: %w", name, err)
	}
	return buf.String(), nil
}
