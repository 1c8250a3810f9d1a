package domain

import (
	"encoding/json"
	"math"
	"time"
)

// Invoice holds the original extracted invoice data and, once
// translated, the rendered target-language counterpart.
type Invoice struct {
	ID        int64  `json:"id"`
	GUID      string `json:"guid"`
	ProjectID int64  `json:"projectId"`

	OriginalFilePath string `json:"originalFilePath"`
	OriginalFileName string `json:"originalFileName"`
	OriginalContent  string `json:"originalFileContent,omitempty"`

	TranslatedFilePath string `json:"translatedFilePath,omitempty"`
	TranslatedFileName string `json:"translatedFileName,omitempty"`
	TranslatedContent  string `json:"translatedFileContent,omitempty"`

	Status       DocumentStatus  `json:"status"`
	ErrorMessage string          `json:"error,omitempty"`
	Insights     json.RawMessage `json:"insights,omitempty"`

	UploadedAt   time.Time  `json:"uploadedAt"`
	TranslatedAt *time.Time `json:"translatedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// InvoiceData is the structured invoice content the assistant
// translates and the template renderer consumes. Field names follow
// the wire format stored in *_file_content columns.
type InvoiceData struct {
	MerchantExporter string `json:"merchant_exporter"`
	InvoiceNumber    string `json:"invoice_number"`
	InvoiceDate      string `json:"invoice_date"`
	ExporterRef      string `json:"exporter_ref"`
	Consignee        string `json:"consignee"`
	Buyer            string `json:"buyer"`

	PreCarriageBy     string `json:"pre_carriage_by"`
	PlaceOfReceipt    string `json:"place_of_receipt"`
	VesselFlightNo    string `json:"vessel_flight_no"`
	PortOfLoading     string `json:"port_of_loading"`
	PortOfDischarge   string `json:"port_of_discharge"`
	FinalDestination  string `json:"final_destination"`
	CountryOfOrigin   string `json:"country_of_origin"`
	CountryOfDestiny  string `json:"country_of_final_destination"`
	TermsOfDelivery   string `json:"terms_of_delivery"`
	Banker            string `json:"banker"`
	ACCode            string `json:"ac_code"`
	SwiftCode         string `json:"swift_code"`
	ADCode            string `json:"ad_code"`
	BeneficiaryBank   []string `json:"beneficiary_bank,omitempty"`
	CorrespondentBank []string `json:"correspondent_bank,omitempty"`

	Items  []InvoiceItem `json:"items"`
	Totals InvoiceTotals `json:"totals"`

	ConversionRate  float64 `json:"conversion_rate"`
	TotalValue      float64 `json:"total_value"`
	TotalValueWords string  `json:"total_value_words,omitempty"`
}

type InvoiceItem struct {
	Description string  `json:"description"`
	Category    string  `json:"category,omitempty"`
	GrossWeight float64 `json:"gross_weight,omitempty"`
	NetWeight   float64 `json:"net_weight,omitempty"`
	HSNCode     string  `json:"hsn_code"`
	UOM         string  `json:"uom"`
	Quantity    float64 `json:"quantity"`
	Rate        float64 `json:"rate"`
	Amount      float64 `json:"amount"`

	ConvertedRate   float64 `json:"converted_rate,omitempty"`
	ConvertedAmount float64 `json:"converted_amount,omitempty"`
}

type InvoiceTotals struct {
	FOBTotal       float64 `json:"fob_total"`
	Freight        float64 `json:"freight,omitempty"`
	Insurance      float64 `json:"insurance,omitempty"`
	TotalCIFAmount float64 `json:"total_cif_amount"`
}

// ApplyExchangeRate recomputes the converted monetary fields locally
// so they never depend on model arithmetic. Rounds half away from
// zero to 2 decimals.
func (d *InvoiceData) ApplyExchangeRate(rate float64) {
	d.ConversionRate = rate
	d.TotalValue = round2(d.Totals.TotalCIFAmount * rate)
	for i := range d.Items {
		d.Items[i].ConvertedRate = round2(d.Items[i].Rate * rate)
		d.Items[i].ConvertedAmount = round2(d.Items[i].Amount * rate)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
