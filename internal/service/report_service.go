package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"salesrouter-data/internal/domain"
	"salesrouter-data/internal/repository"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ReportService renders the xlsx exports downstream teams consume: a
// per-setor summary and a per-PDV detail sheet for one run.
type ReportService struct {
	runs    repository.RunsRepository
	setores repository.SetoresRepository
	mapping repository.SetorPDVRepository
	logger  *zap.Logger
}

func NewReportService(
	runs repository.RunsRepository,
	setores repository.SetoresRepository,
	mapping repository.SetorPDVRepository,
	logger *zap.Logger,
) *ReportService {
	return &ReportService{runs: runs, setores: setores, mapping: mapping, logger: logger}
}

var summaryHeader = []string{
	"Cluster Label",
	"Nome",
	"Centro Lat",
	"Centro Lon",
	"N PDVs",
	"Raio Med (km)",
	"Raio P95 (km)",
}

var detailHeader = []string{
	"Cluster Label",
	"Setor",
	"PDV ID",
	"Lat",
	"Lon",
	"Cidade",
	"UF",
}

// ExportRunSummary renders one row per setor of the run.
func (s *ReportService) ExportRunSummary(ctx context.Context, runID int64) ([]byte, error) {
	if _, err := s.runs.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	setores, err := s.setores.ListSetoresByRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if len(setores) == 0 {
		return nil, fmt.Errorf("no setores found for run %d", runID)
	}

	rows := make([][]any, 0, len(setores))
	for _, setor := range setores {
		var metrics domain.SetorMetrics
		if len(setor.Metrics) > 0 {
			// Best effort: unknown metric shapes leave the columns empty.
			_ = json.Unmarshal(setor.Metrics, &metrics)
		}
		rows = append(rows, []any{
			setor.ClusterLabel,
			deref(setor.Nome),
			derefFloat(setor.CentroLat),
			derefFloat(setor.CentroLon),
			setor.NPDVs,
			metrics.RaioMedKm,
			metrics.RaioP95Km,
		})
	}

	s.logger.Info("exporting run summary", zap.Int64("run_id", runID), zap.Int("setores", len(rows)))
	return generateReportExcel("Cluster Resumo", summaryHeader, rows)
}

// ExportRunDetail renders one row per PDV assignment of the run, joined
// with its setor label and name.
func (s *ReportService) ExportRunDetail(ctx context.Context, runID int64) ([]byte, error) {
	if _, err := s.runs.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	setores, err := s.setores.ListSetoresByRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	assignments, err := s.mapping.ListAssignmentsByRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if len(assignments) == 0 {
		return nil, fmt.Errorf("no assignments found for run %d", runID)
	}

	byID := make(map[int64]*domain.Setor, len(setores))
	for _, setor := range setores {
		byID[setor.ID] = setor
	}

	rows := make([][]any, 0, len(assignments))
	for _, a := range assignments {
		label := 0
		nome := ""
		if setor := byID[a.ClusterID]; setor != nil {
			label = setor.ClusterLabel
			nome = deref(setor.Nome)
		}
		rows = append(rows, []any{label, nome, a.PDVID, a.Lat, a.Lon, a.Cidade, a.UF})
	}

	s.logger.Info("exporting run detail", zap.Int64("run_id", runID), zap.Int("pdvs", len(rows)))
	return generateReportExcel("Cluster PDV Detalhado", detailHeader, rows)
}

// generateReportExcel builds a single-sheet workbook with a styled, frozen
// header row.
func generateReportExcel(sheetName string, headers []string, rows [][]any) ([]byte, error) {
	f := excelize.NewFile()
	// Don't defer Close: WriteTo needs the file open.

	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
		colName, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(sheetName, colName, colName, 16); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for rowIdx, row := range rows {
		for colIdx, value := range row {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return buf.Bytes(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefFloat(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
