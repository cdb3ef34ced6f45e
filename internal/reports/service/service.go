// Package service builds follow-up performance reports and their XLSX
// exports.
package service

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"time"

	"karpet_crm_backend/internal/reports/repository"
	"karpet_crm_backend/platform/config"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// Row is one report line with the derived response rate.
type Row struct {
	UserID       uuid.UUID `json:"user_id"`
	UserName     string    `json:"user_name"`
	BranchName   *string   `json:"branch_name,omitempty"`
	Total        int       `json:"total"`
	Completed    int       `json:"completed"`
	NoResponse   int       `json:"no_response"`
	Scheduled    int       `json:"scheduled"`
	Responded    int       `json:"responded"`
	LeadsCold    int       `json:"leads_cold"`
	ResponseRate float64   `json:"response_rate"`
}

type Service struct {
	repo *repository.Repository
	cfg  config.FollowUpConfig
}

func New(repo *repository.Repository, cfg config.FollowUpConfig) *Service {
	return &Service{repo: repo, cfg: cfg}
}

// PerUserReport returns per-user follow-up stats with response rates.
func (s *Service) PerUserReport(ctx context.Context, filter repository.Filter) ([]Row, error) {
	stats, err := s.repo.PerUserStats(ctx, filter)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(stats))
	for _, st := range stats {
		rows = append(rows, Row{
			UserID:       st.UserID,
			UserName:     st.UserName,
			BranchName:   st.BranchName,
			Total:        st.Total,
			Completed:    st.Completed,
			NoResponse:   st.NoResponse,
			Scheduled:    st.Scheduled,
			Responded:    st.Responded,
			LeadsCold:    st.LeadsCold,
			ResponseRate: responseRate(st.Responded, st.Total),
		})
	}
	return rows, nil
}

// ParseDay interprets a YYYY-MM-DD value in the reporting timezone and
// returns the start of that day. ok is false on a malformed value.
func (s *Service) ParseDay(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("2006-01-02", value, s.cfg.GetReportLocation())
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ExportXLSX renders the per-user report as an XLSX workbook.
func (s *Service) ExportXLSX(ctx context.Context, filter repository.Filter) (*bytes.Buffer, error) {
	rows, err := s.PerUserReport(ctx, filter)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheetName = "Follow-up Report"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	headers := []string{
		"Sales", "Cabang", "Total Follow-up", "Selesai", "Tanpa Respon",
		"Terjadwal", "Merespon", "Lead COLD", "Tingkat Respon (%)",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, row := range rows {
		n := rowIdx + 2
		branch := ""
		if row.BranchName != nil {
			branch = *row.BranchName
		}
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", n), row.UserName)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", n), branch)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", n), row.Total)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", n), row.Completed)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", n), row.NoResponse)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", n), row.Scheduled)
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", n), row.Responded)
		f.SetCellValue(sheetName, fmt.Sprintf("H%d", n), row.LeadsCold)
		f.SetCellValue(sheetName, fmt.Sprintf("I%d", n), row.ResponseRate)
	}

	for i := range headers {
		col := string(rune('A' + i))
		f.SetColWidth(sheetName, col, col, 18)
	}
	f.SetActiveSheet(index)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf, nil
}

func responseRate(responded, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(responded)/float64(total)*10000) / 100
}
