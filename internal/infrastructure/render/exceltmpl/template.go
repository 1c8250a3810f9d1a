package exceltmpl

import (
	"fmt"

	"github.com/aurumline/exportdesk/internal/core/domain"
)

// The FAKTURA sheet layout. Every cell address lives here, in one
// descriptor, so the fill and parse code never hard-codes positions.
const (
	sheetName     = "FAKTURA"
	headerRow     = 24
	itemsStartRow = 28
)

// Fixed labels written on every render.
var staticLabels = map[string]string{
	"A1":  "FAKTURA",
	"A3":  "Kupiec-eksporter:",
	"F3":  "Numer i data faktury",
	"I3":  "Numer referencyjny eksportera:",
	"A9":  "Odbiorca:",
	"F9":  "Nabywca (jeśli inny niż odbiorca):",
	"A17": "Przewóz wstępny przez",
	"C17": "Miejsce odbioru",
	"A19": "Statek / lot nr",
	"C19": "Port załadunku",
	"A21": "Port rozładunku",
	"C21": "Miejsce docelowe",
	"F16": "Kraj pochodzenia towaru",
	"I16": "Kraj przeznaczenia",
	"F19": "Warunki dostawy i płatności:",
	"F20": "Warunki",
	"F21": "Bankier",
	"A24": "Znaki i numery",
	"B24": "Liczba i rodzaj opakowań",
	"C24": "Opis towaru",
	"D24": "Waga brutto",
	"E24": "Waga netto",
	"F24": "Kod HSN",
	"G24": "J.m.",
	"H24": "Ilość",
	"I24": "Stawka",
	"J24": "Kwota",
}

// fieldCells maps scalar invoice fields to their addresses. Getter and
// setter sides of the layout share this table.
type fieldBinding struct {
	cell string
	get  func(d *domain.InvoiceData) string
	set  func(d *domain.InvoiceData, v string)
}

func fieldBindings() []fieldBinding {
	return []fieldBinding{
		{"A4", func(d *domain.InvoiceData) string { return d.MerchantExporter }, func(d *domain.InvoiceData, v string) { d.MerchantExporter = v }},
		{"F4", func(d *domain.InvoiceData) string { return d.InvoiceNumber }, func(d *domain.InvoiceData, v string) { d.InvoiceNumber = v }},
		{"F5", func(d *domain.InvoiceData) string { return d.InvoiceDate }, func(d *domain.InvoiceData, v string) { d.InvoiceDate = v }},
		{"I4", func(d *domain.InvoiceData) string { return d.ExporterRef }, func(d *domain.InvoiceData, v string) { d.ExporterRef = v }},
		{"A10", func(d *domain.InvoiceData) string { return d.Consignee }, func(d *domain.InvoiceData, v string) { d.Consignee = v }},
		{"F10", func(d *domain.InvoiceData) string { return d.Buyer }, func(d *domain.InvoiceData, v string) { d.Buyer = v }},
		{"A18", func(d *domain.InvoiceData) string { return d.PreCarriageBy }, func(d *domain.InvoiceData, v string) { d.PreCarriageBy = v }},
		{"C18", func(d *domain.InvoiceData) string { return d.PlaceOfReceipt }, func(d *domain.InvoiceData, v string) { d.PlaceOfReceipt = v }},
		{"A20", func(d *domain.InvoiceData) string { return d.VesselFlightNo }, func(d *domain.InvoiceData, v string) { d.VesselFlightNo = v }},
		{"C20", func(d *domain.InvoiceData) string { return d.PortOfLoading }, func(d *domain.InvoiceData, v string) { d.PortOfLoading = v }},
		{"A22", func(d *domain.InvoiceData) string { return d.PortOfDischarge }, func(d *domain.InvoiceData, v string) { d.PortOfDischarge = v }},
		{"C22", func(d *domain.InvoiceData) string { return d.FinalDestination }, func(d *domain.InvoiceData, v string) { d.FinalDestination = v }},
		{"F17", func(d *domain.InvoiceData) string { return d.CountryOfOrigin }, func(d *domain.InvoiceData, v string) { d.CountryOfOrigin = v }},
		{"I17", func(d *domain.InvoiceData) string { return d.CountryOfDestiny }, func(d *domain.InvoiceData, v string) { d.CountryOfDestiny = v }},
		{"G20", func(d *domain.InvoiceData) string { return d.TermsOfDelivery }, func(d *domain.InvoiceData, v string) { d.TermsOfDelivery = v }},
		{"G21", func(d *domain.InvoiceData) string { return d.Banker }, func(d *domain.InvoiceData, v string) { d.Banker = v }},
		{"F23", func(d *domain.InvoiceData) string { return d.ACCode }, func(d *domain.InvoiceData, v string) { d.ACCode = v }},
		{"G23", func(d *domain.InvoiceData) string { return d.SwiftCode }, func(d *domain.InvoiceData, v string) { d.SwiftCode = v }},
		{"I23", func(d *domain.InvoiceData) string { return d.ADCode }, func(d *domain.InvoiceData, v string) { d.ADCode = v }},
	}
}

// Item columns, one per spreadsheet column of the goods table.
const (
	colDescription = "A"
	colCategory    = "C"
	colGrossWeight = "D"
	colNetWeight   = "E"
	colHSNCode     = "F"
	colUOM         = "G"
	colQuantity    = "H"
	colRate        = "I"
	colAmount      = "J"
)

// Offsets of the summary blocks, counted from the first row after the
// last item.
const (
	offTotalFOB    = 8
	offFreight     = 9
	offInsurance   = 10
	offTotalCIF    = 11
	offConversion  = 10 // column B
	offTotalValue  = 11 // column B
	offValueWords  = 13 // column B
	offBankDetails = 16 // first of five bank rows, columns C and H
	bankRows       = 5
)

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
