package exceltmpl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/aurumline/exportdesk/internal/core/domain"
)

// Parser reads a workbook laid out like the FAKTURA template back into
// structured invoice data. The inverse of Renderer, sharing its cell
// descriptor.
type Parser struct{}

func NewParser() *Parser { return &Parser{} }

func (p *Parser) Parse(_ context.Context, r io.Reader) (domain.InvoiceData, error) {
	var data domain.InvoiceData

	book, err := excelize.OpenReader(r)
	if err != nil {
		return data, domain.WrapError(domain.ErrInvalidInput, "open invoice workbook", err)
	}
	defer book.Close()

	sheet := book.GetSheetName(0)
	if sheet == "" {
		return data, domain.WrapError(domain.ErrInvalidInput, "parse invoice", errors.New("workbook has no sheets"))
	}
	get := func(addr string) string {
		v, _ := book.GetCellValue(sheet, addr)
		return strings.TrimSpace(v)
	}

	for _, b := range fieldBindings() {
		b.set(&data, get(b.cell))
	}

	row := itemsStartRow
	for {
		desc := get(cell(colDescription, row))
		if desc == "" {
			break
		}
		data.Items = append(data.Items, domain.InvoiceItem{
			Description: desc,
			Category:    get(cell(colCategory, row)),
			GrossWeight: parseNumber(get(cell(colGrossWeight, row))),
			NetWeight:   parseNumber(get(cell(colNetWeight, row))),
			HSNCode:     get(cell(colHSNCode, row)),
			UOM:         get(cell(colUOM, row)),
			Quantity:    parseNumber(get(cell(colQuantity, row))),
			Rate:        parseNumber(get(cell(colRate, row))),
			Amount:      parseNumber(get(cell(colAmount, row))),
		})
		row++
	}

	if data.InvoiceNumber == "" && len(data.Items) == 0 {
		return data, domain.WrapError(domain.ErrInvalidInput, "parse invoice",
			fmt.Errorf("sheet %q does not match the invoice layout", sheet))
	}

	end := row
	data.Totals = domain.InvoiceTotals{
		FOBTotal:       parseNumber(get(cell("J", end+offTotalFOB))),
		Freight:        parseNumber(get(cell("J", end+offFreight))),
		Insurance:      parseNumber(get(cell("J", end+offInsurance))),
		TotalCIFAmount: parseNumber(get(cell("J", end+offTotalCIF))),
	}
	data.ConversionRate = parseNumber(get(cell("B", end+offConversion)))
	data.TotalValue = parseNumber(get(cell("B", end+offTotalValue)))
	data.TotalValueWords = get(cell("B", end+offValueWords))

	for i := 0; i < bankRows; i++ {
		if v := get(cell("C", end+offBankDetails+i)); v != "" {
			data.BeneficiaryBank = append(data.BeneficiaryBank, v)
		}
		if v := get(cell("H", end+offBankDetails+i)); v != "" {
			data.CorrespondentBank = append(data.CorrespondentBank, v)
		}
	}

	return data, nil
}

// parseNumber tolerates thousands separators and comma decimals since
// uploaded workbooks arrive with mixed locale formatting.
func parseNumber(raw string) float64 {
	s := strings.ReplaceAll(raw, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	if strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", "")
	} else {
		s = strings.ReplaceAll(s, ",", ".")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
