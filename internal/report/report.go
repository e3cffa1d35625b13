// Package report keeps an Excel log of answered questions.
package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"multimodal-rag/internal/helper"
	"multimodal-rag/internal/models"
)

var header = []any{"Question", "Response", "References"}

// AppendQA appends one row per response to the workbook at path, creating
// it with a header row when it does not exist yet.
func AppendQA(path string, responses ...models.PromptResponse) error {
	if len(responses) == 0 {
		return nil
	}

	f, created, err := openOrCreate(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	next := len(rows) + 1
	for _, r := range responses {
		cell, err := excelize.CoordinatesToCellName(1, next)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &[]any{r.Query, r.Content, r.References}); err != nil {
			return fmt.Errorf("failed to write row %d: %w", next, err)
		}
		next++
	}

	if created {
		err = f.SaveAs(path)
	} else {
		err = f.Save()
	}
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	log.Info().Str("file", path).Int("rows", len(responses)).Bool("created", created).Msg("Saved results to Excel")
	return nil
}

func openOrCreate(path string) (*excelize.File, bool, error) {
	f, err := excelize.OpenFile(path)
	if err == nil {
		return f, false, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, false, fmt.Errorf("failed to open %s: %w", path, err)
	}

	if err := helper.CreateFolder(filepath.Dir(path)); err != nil {
		return nil, false, err
	}
	f = excelize.NewFile()
	if err := f.SetSheetRow(f.GetSheetName(0), "A1", &header); err != nil {
		f.Close()
		return nil, false, err
	}
	return f, true, nil
}
