// internal/export/excel.go

// Package export writes stored products to an Excel workbook for offline
// review. Photo and review bodies stay in the store; the sheet carries the
// summary columns.
package export

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/shelfscout/shelfscout/internal/utils"
	"github.com/shelfscout/shelfscout/pkg/types"
)

var exportLogger = utils.NewComponentLogger("export")

const sheetName = "Products"

var headers = []string{
	"Name", "Source", "Keyword", "UPC", "SKU", "GTIN", "ASIN",
	"Price", "Currency", "Rating", "Ratings Total", "Reviews", "Photos",
	"Run Version", "Last Updated", "Product URL",
}

// WriteExcel writes the products to path as an .xlsx workbook.
func WriteExcel(products []types.StoredProduct, path string) error {
	file := excelize.NewFile()
	defer file.Close()

	index, err := file.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	file.SetActiveSheet(index)
	if err := file.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	headerStyle, err := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := file.SetCellValue(sheetName, cell, header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		if err := file.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("failed to style header: %w", err)
		}
	}

	for row, product := range products {
		overall := ""
		if product.Rating.Overall != nil {
			overall = strconv.FormatFloat(*product.Rating.Overall, 'f', -1, 64)
		}
		values := []interface{}{
			product.Name,
			product.Source,
			product.Keyword,
			product.UPC,
			product.SKU,
			product.GTIN,
			product.ASIN,
			product.Price.Amount,
			product.Price.Currency,
			overall,
			product.Rating.Total,
			len(product.Reviews),
			len(product.Photos),
			product.RunVersion,
			product.LastUpdatedAt.Format("2006-01-02 15:04:05"),
			product.SourceURL,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return err
			}
			if err := file.SetCellValue(sheetName, cell, value); err != nil {
				return fmt.Errorf("failed to write row %d: %w", row+2, err)
			}
		}
	}

	if err := file.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	exportLogger.Infof("Exported %d product(s) to %s", len(products), path)
	return nil
}
