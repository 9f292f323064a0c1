package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/piwi3910/CrateStack/internal/export"
	"github.com/piwi3910/CrateStack/internal/importer"
	"github.com/piwi3910/CrateStack/internal/logging"
	"github.com/piwi3910/CrateStack/internal/model"
	"github.com/piwi3910/CrateStack/internal/project"
)

// loadItems imports an item list, choosing the reader by file extension.
// Row errors fail the whole import; warnings are logged.
func loadItems(path string, log logging.Logger) ([]model.Item, error) {
	var res importer.ImportResult
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".txt":
		res = importer.ImportCSV(path)
	case ".xlsx", ".xlsm":
		res = importer.ImportExcel(path)
	case ".json":
		res = importer.ImportJSON(path)
	default:
		return nil, fmt.Errorf("unsupported item file %q (want .csv, .tsv, .txt, .xlsx, .xlsm or .json)", path)
	}

	for _, w := range res.Warnings {
		log.Warnf("%s: %s", path, w)
	}
	if len(res.Errors) > 0 {
		errs := make([]error, len(res.Errors))
		for i, e := range res.Errors {
			errs[i] = errors.New(e)
		}
		return nil, fmt.Errorf("import %s: %w", path, errors.Join(errs...))
	}
	if len(res.Items) == 0 {
		return nil, fmt.Errorf("import %s: no items found", path)
	}
	log.Infof("imported %d items from %s", len(res.Items), path)
	return res.Items, nil
}

// writeOutputs writes every configured output file for result.
func writeOutputs(out model.OutputConfig, result model.PackResult, log logging.Logger) error {
	writers := []struct {
		path  string
		kind  string
		write func(string, model.PackResult) error
	}{
		{out.ResultPath, "result", project.SaveResult},
		{out.PDFPath, "PDF report", export.ExportPDF},
		{out.LabelsPath, "labels", export.ExportLabels},
		{out.ExcelPath, "workbook", export.ExportExcel},
		{out.DXFPath, "DXF wireframe", export.ExportDXF},
	}
	for _, w := range writers {
		if w.path == "" {
			continue
		}
		if err := w.write(w.path, result); err != nil {
			return fmt.Errorf("write %s: %w", w.kind, err)
		}
		log.Infof("wrote %s to %s", w.kind, w.path)
	}
	return nil
}
