package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"fuelsync-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeReportSource struct {
	rows     []models.SalesReportRow
	archives []models.ReportArchive
}

func (f *fakeReportSource) SalesRows(ctx context.Context, tenantID, stationID string, from, to time.Time) ([]models.SalesReportRow, error) {
	return f.rows, nil
}

func (f *fakeReportSource) RecordArchive(ctx context.Context, a *models.ReportArchive) error {
	f.archives = append(f.archives, *a)
	return nil
}

func (f *fakeReportSource) ListArchives(ctx context.Context, tenantID string) ([]models.ReportArchive, error) {
	return f.archives, nil
}

type fakeArchiver struct {
	keys []string
	err  error
}

func (f *fakeArchiver) Put(ctx context.Context, tenantID, name, contentType string, data []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	key := "reports/" + tenantID + "/" + name
	f.keys = append(f.keys, key)
	return key, nil
}

func sampleRows() []models.SalesReportRow {
	at := time.Date(2025, 3, 9, 4, 30, 0, 0, time.UTC) // 10:00 IST
	return []models.SalesReportRow{
		{RecordedAt: at, StationName: "Highway", PumpName: "P1", NozzleNumber: 1, FuelType: models.FuelPetrol,
			Volume: 50, FuelPrice: 100, Amount: 5000, PaymentMethod: models.PaymentCash},
		{RecordedAt: at.Add(time.Hour), StationName: "Highway", PumpName: "P1", NozzleNumber: 2, FuelType: models.FuelDiesel,
			Volume: 20.5, FuelPrice: 90, Amount: 1845, PaymentMethod: models.PaymentCredit, Creditor: "Acme Transport"},
	}
}

var owner = models.Actor{UserID: "owner-1", TenantID: testTenant, Role: models.RoleOwner}

func TestParseReportRequest(t *testing.T) {
	req, err := ParseReportRequest("", "2025-03-01", "2025-03-09", "")
	require.NoError(t, err)
	assert.Equal(t, models.ReportCSV, req.Format)
	assert.Equal(t, "2025-03-09", req.To.Format("2006-01-02"))

	cases := map[string][4]string{
		"bad format":    {"", "2025-03-01", "2025-03-09", "docx"},
		"bad station":   {"abc", "2025-03-01", "2025-03-09", "csv"},
		"bad from":      {"", "03/01/2025", "2025-03-09", "csv"},
		"reversed":      {"", "2025-03-09", "2025-03-01", "csv"},
		"too long":      {"", "2023-01-01", "2025-03-09", "csv"},
		"missing dates": {"", "", "", "csv"},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseReportRequest(c[0], c[1], c[2], c[3])
			assert.ErrorIs(t, err, models.ErrValidation)
		})
	}
}

func TestReportService_CSV(t *testing.T) {
	source := &fakeReportSource{rows: sampleRows()}
	svc := NewReportService(source, nil, fixedScope{testStation})
	req, err := ParseReportRequest("", "2025-03-09", "2025-03-09", models.ReportCSV)
	require.NoError(t, err)

	file, err := svc.Sales(context.Background(), owner, req)
	require.NoError(t, err)
	assert.Equal(t, "sales_2025-03-09_2025-03-09.csv", file.Name)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.Empty(t, file.ObjectKey)

	records, err := csv.NewReader(bytes.NewReader(file.Data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, reportHeaders, records[0])
	assert.Equal(t, []string{"2025-03-09", "10:00", "Highway", "P1", "1", "petrol", "50.000", "100.00", "5000.00", "cash", ""}, records[1])
	assert.Equal(t, "Acme Transport", records[2][10])
}

func TestReportService_XLSX(t *testing.T) {
	svc := NewReportService(&fakeReportSource{rows: sampleRows()}, nil, fixedScope{testStation})
	req, err := ParseReportRequest("", "2025-03-09", "2025-03-09", models.ReportXLSX)
	require.NoError(t, err)

	file, err := svc.Sales(context.Background(), owner, req)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(file.Data))
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue("Sales", "C4")
	require.NoError(t, err)
	assert.Equal(t, "Station", header)
	station, err := f.GetCellValue("Sales", "C5")
	require.NoError(t, err)
	assert.Equal(t, "Highway", station)
	label, err := f.GetCellValue("Sales", "A8")
	require.NoError(t, err)
	assert.Equal(t, "Total", label)
}

func TestReportService_PDF(t *testing.T) {
	svc := NewReportService(&fakeReportSource{rows: sampleRows()}, nil, fixedScope{testStation})
	req, err := ParseReportRequest("", "2025-03-09", "2025-03-09", models.ReportPDF)
	require.NoError(t, err)

	file, err := svc.Sales(context.Background(), owner, req)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Data, []byte("%PDF-")))
}

func TestReportService_Archive(t *testing.T) {
	source := &fakeReportSource{rows: sampleRows()}
	archive := &fakeArchiver{}
	svc := NewReportService(source, archive, fixedScope{testStation})
	req, err := ParseReportRequest("", "2025-03-01", "2025-03-09", models.ReportCSV)
	require.NoError(t, err)

	file, err := svc.Sales(context.Background(), owner, req)
	require.NoError(t, err)
	require.Len(t, archive.keys, 1)
	assert.Equal(t, archive.keys[0], file.ObjectKey)
	require.Len(t, source.archives, 1)
	assert.Equal(t, "2025-03-01", source.archives[0].From)
	assert.Equal(t, owner.UserID, source.archives[0].CreatedBy)

	// upload failures do not fail the download
	archive.err = errors.New("bucket unavailable")
	file, err = svc.Sales(context.Background(), owner, req)
	require.NoError(t, err)
	assert.Empty(t, file.ObjectKey)
	assert.Len(t, source.archives, 1)
}

func TestReportService_AttendantScope(t *testing.T) {
	svc := NewReportService(&fakeReportSource{}, nil, fixedScope{testStation})

	req, err := ParseReportRequest("", "2025-03-09", "2025-03-09", "")
	require.NoError(t, err)
	_, err = svc.Sales(context.Background(), testActor, req)
	assert.ErrorIs(t, err, models.ErrForbidden)

	req.StationID = testStation
	_, err = svc.Sales(context.Background(), testActor, req)
	assert.NoError(t, err)

	_, err = svc.Archives(context.Background(), testActor)
	assert.ErrorIs(t, err, models.ErrForbidden)
}
