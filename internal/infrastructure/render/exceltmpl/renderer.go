package exceltmpl

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/aurumline/exportdesk/internal/core/domain"
)

// Renderer fills the FAKTURA workbook layout from structured invoice
// data and returns the finished xlsx bytes.
type Renderer struct{}

func NewRenderer() *Renderer { return &Renderer{} }

func (r *Renderer) Render(_ context.Context, data domain.InvoiceData) ([]byte, error) {
	book := excelize.NewFile()
	defer book.Close()
	if err := book.SetSheetName(book.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	moneyStyle, err := book.NewStyle(&excelize.Style{
		NumFmt:    2,
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	if err != nil {
		return nil, fmt.Errorf("build number style: %w", err)
	}

	setMoney := func(addr string, v float64) error {
		if err := book.SetCellFloat(sheetName, addr, v, 2, 64); err != nil {
			return fmt.Errorf("set %s: %w", addr, err)
		}
		return book.SetCellStyle(sheetName, addr, addr, moneyStyle)
	}

	for addr, label := range staticLabels {
		if err := book.SetCellStr(sheetName, addr, label); err != nil {
			return nil, fmt.Errorf("set %s: %w", addr, err)
		}
	}
	for _, b := range fieldBindings() {
		if v := b.get(&data); v != "" {
			if err := book.SetCellStr(sheetName, b.cell, v); err != nil {
				return nil, fmt.Errorf("set %s: %w", b.cell, err)
			}
		}
	}

	row := itemsStartRow
	for _, item := range data.Items {
		if err := book.SetCellStr(sheetName, cell(colDescription, row), item.Description); err != nil {
			return nil, fmt.Errorf("set item row %d: %w", row, err)
		}
		if item.Category != "" {
			_ = book.SetCellStr(sheetName, cell(colCategory, row), item.Category)
		}
		if item.GrossWeight != 0 {
			if err := setMoney(cell(colGrossWeight, row), item.GrossWeight); err != nil {
				return nil, err
			}
		}
		if item.NetWeight != 0 {
			if err := setMoney(cell(colNetWeight, row), item.NetWeight); err != nil {
				return nil, err
			}
		}
		_ = book.SetCellStr(sheetName, cell(colHSNCode, row), item.HSNCode)
		_ = book.SetCellStr(sheetName, cell(colUOM, row), item.UOM)
		if err := setMoney(cell(colQuantity, row), item.Quantity); err != nil {
			return nil, err
		}
		rate, amount := item.Rate, item.Amount
		if item.ConvertedRate != 0 {
			rate, amount = item.ConvertedRate, item.ConvertedAmount
		}
		if err := setMoney(cell(colRate, row), rate); err != nil {
			return nil, err
		}
		if err := setMoney(cell(colAmount, row), amount); err != nil {
			return nil, err
		}
		row++
	}

	end := row
	totals := []struct {
		offset int
		label  string
		value  float64
	}{
		{offTotalFOB, "Wartość FOB ogółem", data.Totals.FOBTotal},
		{offFreight, "Fracht", data.Totals.Freight},
		{offInsurance, "Ubezpieczenie", data.Totals.Insurance},
		{offTotalCIF, "Łączna kwota CIF", data.Totals.TotalCIFAmount},
	}
	for _, t := range totals {
		_ = book.SetCellStr(sheetName, cell("I", end+t.offset), t.label)
		if err := setMoney(cell("J", end+t.offset), t.value); err != nil {
			return nil, err
		}
	}

	_ = book.SetCellStr(sheetName, cell("A", end+offConversion), "Kurs przeliczenia")
	if err := setMoney(cell("B", end+offConversion), data.ConversionRate); err != nil {
		return nil, err
	}
	_ = book.SetCellStr(sheetName, cell("A", end+offTotalValue), "Wartość ogółem")
	if err := setMoney(cell("B", end+offTotalValue), data.TotalValue); err != nil {
		return nil, err
	}
	if data.TotalValueWords != "" {
		_ = book.SetCellStr(sheetName, cell("B", end+offValueWords), data.TotalValueWords)
	}

	bankLabels := []string{"Nazwa banku", "Adres", "Numer konta", "Kod SWIFT", "Kod rozliczeniowy"}
	_ = book.SetCellStr(sheetName, cell("A", end+offBankDetails-1), "Szczegóły")
	_ = book.SetCellStr(sheetName, cell("C", end+offBankDetails-1), "Dane banku beneficjenta")
	_ = book.SetCellStr(sheetName, cell("H", end+offBankDetails-1), "Dane banku korespondencyjnego")
	for i := 0; i < bankRows; i++ {
		_ = book.SetCellStr(sheetName, cell("A", end+offBankDetails+i), bankLabels[i])
		if i < len(data.BeneficiaryBank) {
			_ = book.SetCellStr(sheetName, cell("C", end+offBankDetails+i), data.BeneficiaryBank[i])
		}
		if i < len(data.CorrespondentBank) {
			_ = book.SetCellStr(sheetName, cell("H", end+offBankDetails+i), data.CorrespondentBank[i])
		}
	}

	buf, err := book.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
