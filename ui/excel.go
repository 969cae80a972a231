package ui

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"

	"flowcast/domain/attention"
	"flowcast/domain/post"
)

// handleExport downloads the flow summary as an Excel sheet: one row per
// working-list post with its completion status and attention reason.
func (a *App) handleExport(w http.ResponseWriter, r *http.Request) {
	handle, ok := a.lookupFlow(w, r)
	if !ok {
		return
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("[handleExport] failed to close workbook: %v", err)
		}
	}()

	sheet := "Flow Summary"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		http.Error(w, "Failed to build export", http.StatusInternalServerError)
		return
	}

	headers := []string{"Post ID", "Title", "Status", "Attention"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	now := time.Now()
	row := 2
	for _, step := range handle.Session.Steps() {
		var p *post.Post
		for _, candidate := range handle.Session.Posts() {
			if candidate.ID == step.PostID {
				p = candidate
				break
			}
		}
		status := "skipped"
		if step.Done {
			status = "predicted"
		}
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), step.PostID)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), step.Title)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), status)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), attentionLabel(p, now))
		row++
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=flow-%s.xlsx", handle.ID))
	if err := f.Write(w); err != nil {
		log.Printf("[handleExport] failed to write workbook: %v", err)
	}
}

// attentionLabel names the first attention criterion the post matches, in the
// same priority order the general flow uses.
func attentionLabel(p *post.Post, now time.Time) string {
	if p == nil {
		return ""
	}
	switch {
	case attention.IsUnpredicted(p, now):
		return string(attention.ReasonUnpredicted)
	case attention.HasSignificantMovement(p, now):
		return string(attention.ReasonMovement)
	case attention.IsStale(p, attention.DefaultStaleThreshold, now):
		return string(attention.ReasonStale)
	default:
		return ""
	}
}
