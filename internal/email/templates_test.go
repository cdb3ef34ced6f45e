package email

import (
	"strings"
	"testing"
)

func TestRenderReminderTemplate(t *testing.T) {
	body, err := renderEmailTemplate("reminder.html", reminderEmailData{
		baseEmailData: baseEmailData{Title: subjectFollowUpReminder, Heading: "Pengingat Follow-up"},
		UserName:      "Budi",
		LeadName:      "Ibu Sari",
		LeadPhone:     "+6281234567890",
		StageName:     "penawaran",
		ScheduledDate: "10 Mar 2025 09:30",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"Budi", "Ibu Sari", "+6281234567890", "penawaran"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected body to contain %q", want)
		}
	}
}

func TestRenderLeadColdTemplate(t *testing.T) {
	body, err := renderEmailTemplate("lead_cold.html", leadColdEmailData{
		baseEmailData: baseEmailData{Title: subjectLeadWentCold, Heading: "Lead COLD"},
		UserName:      "Budi",
		LeadName:      "Ibu Sari",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(body, "Ibu Sari") {
		t.Fatalf("expected body to contain lead name, got: %s", body)
	}
}

func TestRenderUnknownTemplateFails(t *testing.T) {
	if _, err := renderEmailTemplate("missing.html", nil); err == nil {
		t.Fatal("expected error for unknown template")
	}
}
