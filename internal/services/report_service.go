package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"fuelsync-backend/internal/models"
	"fuelsync-backend/internal/timeutil"

	"github.com/jung-kurt/gofpdf/v2"
	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

// ReportSource is implemented by *repositories.ReportRepository.
type ReportSource interface {
	SalesRows(ctx context.Context, tenantID, stationID string, from, to time.Time) ([]models.SalesReportRow, error)
	RecordArchive(ctx context.Context, a *models.ReportArchive) error
	ListArchives(ctx context.Context, tenantID string) ([]models.ReportArchive, error)
}

// Archiver stores a rendered file and returns its object key.
type Archiver interface {
	Put(ctx context.Context, tenantID, name, contentType string, data []byte) (string, error)
}

const maxReportDays = 366

var reportHeaders = []string{"Date", "Time", "Station", "Pump", "Nozzle", "Fuel", "Volume (L)", "Price", "Amount", "Payment", "Creditor"}

var reportContentTypes = map[string]string{
	models.ReportCSV:  "text/csv",
	models.ReportXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	models.ReportPDF:  "application/pdf",
}

type ReportService struct {
	Source  ReportSource
	Archive Archiver
	Scope   StationScope
}

// NewReportService takes a nil archiver when object storage is disabled.
func NewReportService(source ReportSource, archive Archiver, scope StationScope) *ReportService {
	return &ReportService{Source: source, Archive: archive, Scope: scope}
}

// ParseReportRequest validates the query of GET /reports/sales.
func ParseReportRequest(stationID, from, to, format string) (*models.ReportRequest, error) {
	if format == "" {
		format = models.ReportCSV
	}
	if !models.ValidReportFormat(format) {
		return nil, validationf("format must be csv, xlsx or pdf")
	}
	if stationID != "" && !validID(stationID) {
		return nil, validationf("invalid stationId")
	}
	fromDay, err := timeutil.ParseDate(from)
	if err != nil {
		return nil, validationf("from must be YYYY-MM-DD")
	}
	toDay, err := timeutil.ParseDate(to)
	if err != nil {
		return nil, validationf("to must be YYYY-MM-DD")
	}
	if toDay.Before(fromDay) {
		return nil, validationf("from must not be after to")
	}
	if toDay.Sub(fromDay) > maxReportDays*24*time.Hour {
		return nil, validationf("range must not exceed %d days", maxReportDays)
	}
	return &models.ReportRequest{
		StationID: stationID,
		From:      fromDay,
		To:        timeutil.EndOfDay(toDay),
		Format:    format,
	}, nil
}

// Sales renders the sales report and archives it when storage is configured.
func (s *ReportService) Sales(ctx context.Context, actor models.Actor, req *models.ReportRequest) (*models.ReportFile, error) {
	scope, err := s.Scope.Stations(ctx, actor)
	if err != nil {
		return nil, err
	}
	if scope != nil {
		if req.StationID == "" || !inScope(scope, req.StationID) {
			return nil, fmt.Errorf("%w: reports are limited to assigned stations", models.ErrForbidden)
		}
	}

	rows, err := s.Source.SalesRows(ctx, actor.TenantID, req.StationID, req.From, req.To)
	if err != nil {
		return nil, err
	}

	var data []byte
	switch req.Format {
	case models.ReportXLSX:
		data, err = renderSalesXLSX(rows, req)
	case models.ReportPDF:
		data, err = renderSalesPDF(rows, req)
	default:
		data, err = renderSalesCSV(rows)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s report: %w", req.Format, err)
	}

	fromDate, toDate := timeutil.BusinessDate(req.From), timeutil.BusinessDate(req.To)
	file := &models.ReportFile{
		Name:        fmt.Sprintf("sales_%s_%s.%s", fromDate, toDate, req.Format),
		ContentType: reportContentTypes[req.Format],
		Data:        data,
	}

	if s.Archive != nil {
		key, err := s.Archive.Put(ctx, actor.TenantID, file.Name, file.ContentType, data)
		if err != nil {
			// the download still succeeds without an archive copy
			log.Errorf("[Reports] Archive upload failed: %v", err)
		} else {
			file.ObjectKey = key
			if err := s.Source.RecordArchive(ctx, &models.ReportArchive{
				TenantID:  actor.TenantID,
				Format:    req.Format,
				ObjectKey: key,
				From:      fromDate,
				To:        toDate,
				CreatedBy: actor.UserID,
			}); err != nil {
				log.Errorf("[Reports] Failed to record archive %s: %v", key, err)
			}
		}
	}

	log.WithFields(log.Fields{
		"tenant": actor.TenantID,
		"format": req.Format,
		"rows":   len(rows),
	}).Info("[Reports] Sales report generated")
	return file, nil
}

func (s *ReportService) Archives(ctx context.Context, actor models.Actor) ([]models.ReportArchive, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	return s.Source.ListArchives(ctx, actor.TenantID)
}

func reportRecord(r models.SalesReportRow) []string {
	at := r.RecordedAt.In(timeutil.IST)
	return []string{
		at.Format("2006-01-02"),
		at.Format("15:04"),
		r.StationName,
		r.PumpName,
		strconv.Itoa(r.NozzleNumber),
		r.FuelType,
		strconv.FormatFloat(r.Volume, 'f', 3, 64),
		strconv.FormatFloat(r.FuelPrice, 'f', 2, 64),
		strconv.FormatFloat(r.Amount, 'f', 2, 64),
		r.PaymentMethod,
		r.Creditor,
	}
}

func reportTotals(rows []models.SalesReportRow) (volume, amount float64) {
	for _, r := range rows {
		volume += r.Volume
		amount += r.Amount
	}
	return volume, amount
}

func renderSalesCSV(rows []models.SalesReportRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(reportHeaders); err != nil {
		return nil, err
	}
	for _, r := range rows {
		if err := w.Write(reportRecord(r)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func renderSalesXLSX(rows []models.SalesReportRow, req *models.ReportRequest) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	sheetName := "Sales"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 16},
	})
	f.SetCellValue(sheetName, "A1", "Sales Report")
	f.SetCellStyle(sheetName, "A1", "A1", titleStyle)
	f.SetCellValue(sheetName, "A2", fmt.Sprintf("%s to %s", timeutil.BusinessDate(req.From), timeutil.BusinessDate(req.To)))

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	for colIdx, header := range reportHeaders {
		cell, _ := excelize.CoordinatesToCellName(colIdx+1, 4)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}
	f.SetColWidth(sheetName, "A", "K", 16)

	for rowIdx, r := range rows {
		at := r.RecordedAt.In(timeutil.IST)
		values := []any{
			at.Format("2006-01-02"), at.Format("15:04"), r.StationName, r.PumpName, r.NozzleNumber,
			r.FuelType, r.Volume, r.FuelPrice, r.Amount, r.PaymentMethod, r.Creditor,
		}
		cell, _ := excelize.CoordinatesToCellName(1, rowIdx+5)
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return nil, err
		}
	}

	volume, amount := reportTotals(rows)
	totalRow := len(rows) + 6
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", totalRow), "Total")
	f.SetCellValue(sheetName, fmt.Sprintf("G%d", totalRow), volume)
	f.SetCellValue(sheetName, fmt.Sprintf("I%d", totalRow), amount)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderSalesPDF(rows []models.SalesReportRow, req *models.ReportRequest) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(277, 10, "Sales Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(277, 6, fmt.Sprintf("%s to %s  |  Generated: %s",
		timeutil.BusinessDate(req.From), timeutil.BusinessDate(req.To),
		timeutil.Now().Format("02-Jan-2006 03:04 PM")), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	widths := []float64{22, 14, 40, 30, 15, 20, 24, 20, 26, 22, 44}
	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(200, 200, 200)
	for i, h := range reportHeaders {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, r := range rows {
		for i, v := range reportRecord(r) {
			align := "L"
			if i >= 6 && i <= 8 {
				align = "R"
			}
			pdf.CellFormat(widths[i], 6, v, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	volume, amount := reportTotals(rows)
	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(277, 8, fmt.Sprintf("Transactions: %d   Volume: %.3f L   Amount: Rs. %.2f", len(rows), volume, amount),
		"1", 1, "C", true, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
