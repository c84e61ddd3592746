package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeSheet(t *testing.T, f *excelize.File, sheet string, rows [][]any) {
	t.Helper()
	for i, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				t.Fatalf("set %s!%s: %v", sheet, cell, err)
			}
		}
	}
}

// setupCatalogs writes one category workbook and the pleated workbook and
// points the environment at them.
func setupCatalogs(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	chdir(t, dir)

	rect := excelize.NewFile()
	defer rect.Close()
	if err := rect.SetSheetName("Sheet1", "Cennik"); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}
	writeSheet(t, rect, "Cennik", [][]any{{"", 100, 200}, {100, 300, 400}, {150, 420, 500}})
	if err := rect.SaveAs(filepath.Join(dir, "drewno_25.xlsx")); err != nil {
		t.Fatalf("save workbook: %v", err)
	}

	pleated := excelize.NewFile()
	defer pleated.Close()
	if err := pleated.SetSheetName("Sheet1", "System_1"); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}
	if _, err := pleated.NewSheet("Material"); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	writeSheet(t, pleated, "System_1", [][]any{{"", 100, 200}, {100, 80, 120}})
	writeSheet(t, pleated, "Material", [][]any{{"Nazwa", "Cena"}, {"Screen", 50}})
	if err := pleated.SaveAs(filepath.Join(dir, "cenniki_plis.xlsx")); err != nil {
		t.Fatalf("save workbook: %v", err)
	}

	t.Setenv("CATALOG_DIR", dir)
	t.Setenv("PLEATED_WORKBOOK", filepath.Join(dir, "cenniki_plis.xlsx"))
	t.Setenv("DB_PATH", filepath.Join(dir, "catalog.db"))
	t.Setenv("CATALOG_BACKEND", "xlsx")
	t.Setenv("APP_ENV", "test")
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestQuoteFromWorkbooks(t *testing.T) {
	setupCatalogs(t)

	out, err := execute(t, "--backend", "xlsx", "quote", "-c", "drewno_25", "-W", "190", "-H", "140")
	if err != nil {
		t.Fatalf("quote: %v (%s)", err, out)
	}
	if !strings.Contains(out, "rectangular drewno_25: 500 (matched 200x150)") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestImportThenQuoteFromDatabase(t *testing.T) {
	setupCatalogs(t)

	out, err := execute(t, "--backend", "xlsx", "import")
	if err != nil {
		t.Fatalf("import: %v (%s)", err, out)
	}
	if !strings.Contains(out, "7 inserted, 0 updated, 0 deleted") {
		t.Fatalf("unexpected import output: %q", out)
	}

	out, err = execute(t, "--backend", "xlsx", "import")
	if err != nil {
		t.Fatalf("second import: %v (%s)", err, out)
	}
	if !strings.Contains(out, "0 inserted, 0 updated, 0 deleted") {
		t.Fatalf("second import changed data: %q", out)
	}

	out, err = execute(t, "--backend", "sqlite", "quote", "--line", "combined_width", "-c", "1",
		"-W", "90", "--second-width", "90", "-H", "90", "-m", "screen", "--json")
	if err != nil {
		t.Fatalf("quote: %v (%s)", err, out)
	}
	if !strings.Contains(out, `"price": 200`) {
		t.Fatalf("unexpected quote output: %q", out)
	}

	out, err = execute(t, "--backend", "sqlite", "materials", "1")
	if err != nil {
		t.Fatalf("materials: %v (%s)", err, out)
	}
	if strings.TrimSpace(out) != "Screen" {
		t.Fatalf("unexpected materials output: %q", out)
	}
}

func TestQuoteReportsSizeNotFound(t *testing.T) {
	setupCatalogs(t)

	_, err := execute(t, "--backend", "xlsx", "quote", "--line", "rectangular", "-c", "drewno_25",
		"-W", "190", "-H", "160", "--second-width", "0", "-m", "", "--json=false")
	if err == nil || !strings.Contains(err.Error(), "SIZE_NOT_FOUND") {
		t.Fatalf("expected size error, got %v", err)
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "oslony version ") {
		t.Fatalf("unexpected output: %q", out)
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir %s: %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}
