package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/TinyActive/Feature-Voting-Tool/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ExportHandler dumps the feature board with tallies as CSV or XLSX.
type ExportHandler struct {
	DB *gorm.DB
}

func NewExportHandler(db *gorm.DB) *ExportHandler {
	return &ExportHandler{DB: db}
}

var exportHeaders = []string{"ID", "Title (EN)", "Title (VI)", "Votes Up", "Votes Down", "Net", "Created"}

func exportRow(r featureRow) []string {
	return []string{
		r.ID,
		r.TitleEN,
		r.TitleVI,
		strconv.FormatInt(r.VotesUp, 10),
		strconv.FormatInt(r.VotesDown, 10),
		strconv.FormatInt(r.VotesUp-r.VotesDown, 10),
		r.CreatedAt.Format("2006-01-02"),
	}
}

// ExportCSV handles GET /api/admin/export/csv
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	rows, err := listFeatureRows(h.DB)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to export features")
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"features_%s.csv\"",
		time.Now().Format("20060102")))

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	// UTF-8 BOM so Excel renders Vietnamese titles correctly
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer.Write(exportHeaders)
	for _, r := range rows {
		writer.Write(exportRow(r))
	}
}

// ExportXLSX handles GET /api/admin/export/xlsx
func (h *ExportHandler) ExportXLSX(c *gin.Context) {
	rows, err := listFeatureRows(h.DB)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to export features")
		return
	}

	f := excelize.NewFile()
	sheetName := "Features"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to export features")
		return
	}
	f.SetActiveSheet(index)

	for i, header := range exportHeaders {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for idx, r := range rows {
		row := idx + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), r.ID)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), r.TitleEN)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), r.TitleVI)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), r.VotesUp)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), r.VotesDown)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), r.VotesUp-r.VotesDown)
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), r.CreatedAt.Format("2006-01-02"))
	}

	f.SetColWidth(sheetName, "A", "A", 38)
	f.SetColWidth(sheetName, "B", "C", 40)
	f.SetColWidth(sheetName, "D", "F", 12)
	f.SetColWidth(sheetName, "G", "G", 12)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"features_%s.xlsx\"",
		time.Now().Format("20060102")))

	if err := f.Write(c.Writer); err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to export features")
	}
}
