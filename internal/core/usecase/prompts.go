package usecase

import (
	"fmt"
	"strings"

	"github.com/aurumline/exportdesk/internal/core/domain"
)

// translationStrategy is one rung of the translation ladder: a pure
// description of how to ask, ordered from strictest to most lenient.
type translationStrategy struct {
	name         string
	jsonResponse bool
	instructions func(p *domain.Project) string
}

func translationLadder() []translationStrategy {
	return []translationStrategy{
		{
			name:         "structured_json",
			jsonResponse: true,
			instructions: buildTranslationPrompt,
		},
		{
			name:         "plain_completion",
			jsonResponse: false,
			instructions: buildTranslationPrompt,
		},
		{
			name:         "minimal",
			jsonResponse: false,
			instructions: func(p *domain.Project) string {
				return fmt.Sprintf(
					"Translate the attached invoice data from %s to %s. Reply with the translated JSON object only, no commentary.",
					p.SourceLanguage, p.TargetLanguage,
				)
			},
		},
	}
}

func buildTranslationPrompt(p *domain.Project) string {
	return fmt.Sprintf(`You are translating a commercial export invoice.

Translate every textual field of the invoice JSON in the user message from %s to %s.
Keep the JSON structure and keys exactly as given: merchant_exporter, invoice_number,
invoice_date, exporter_ref, consignee, buyer, shipping fields, items
(description, hsn_code, uom, quantity, rate, amount), totals (fob_total, freight,
insurance, total_cif_amount), conversion_rate, total_value, total_value_words.

Rules:
- Translate text values; never change codes, numbers, dates or currency amounts.
- Monetary amounts stay in %s; converted fields use %s.
- Write total_value_words as the %s spelling of the total amount.
- Return only the JSON object.`,
		p.SourceLanguage, p.TargetLanguage, p.SourceCurrency, p.TargetCurrency, p.TargetLanguage,
	)
}

func buildExtractionPrompt(kind domain.DocumentKind) string {
	switch kind {
	case domain.KindCourierReceipt:
		return `Read the attached courier receipt and extract its data.
Return a JSON object with keys:
shippingInfo (carrier, trackingNumber, serviceType, shipmentDate, deliveryStatus),
routingInfo (origin, destination, transitPoints array),
packageDetails (weight, dimensions, pieces, declaredValue),
costBreakdown (baseCharge, fuelSurcharge, duties, taxes, totalCost),
references (invoiceNumbers array, orderNumbers array).
Use null for values absent from the document. Return only the JSON object.`
	case domain.KindCustomDeclaration, domain.KindCustomClearance:
		return `Read the attached customs document and extract its data following the SAD part structure.
Return a JSON object with keys:
declaration (lrn, mrn, declarationType, submissionDate),
parties (importer {name, address, nip}, applicant {name, address, nip}, representative),
goods (array of {description, cnCode, taricCode, originCountry, netMass, grossMass, packages, statisticalValue}),
transport (mode, identity, nationality, deliveryTerms),
taxesAndFees (array of {type, base, rate, amount, paymentMethod}),
valuation (invoiceValue, currency, exchangeRate, customsValue).
Use null for values absent from the document. Return only the JSON object.`
	default:
		return "Read the attached document and return its content as a JSON object. Return only the JSON object."
	}
}

func buildValidationPrompt(kind domain.DocumentKind, extracted string, invoices []domain.Invoice) string {
	var b strings.Builder
	fmt.Fprintf(&b, `You already extracted this %s data in the previous step:

%s

Validate it against the project invoices below.
`, strings.ReplaceAll(string(kind), "_", " "), extracted)

	for i, inv := range invoices {
		fmt.Fprintf(&b, "\nInvoice %d (%s):\n%s\n", i+1, inv.OriginalFileName, invoiceContentForPrompt(inv))
	}

	b.WriteString(`
Return a JSON object with keys:
verificationChecklist (array of {check, matched, priority, comment}),
invoiceComparison (addressValidation, itemValidation, financialValidation, overallComplianceScore),
complianceAssessment (status, issues array),
recommendations (array of strings),
processingStats (invoicesCompared, checksPerformed),
overallMatchScore (number from 0 to 100).
Return only the JSON object.`)
	return b.String()
}

func invoiceContentForPrompt(inv domain.Invoice) string {
	const maxSnippet = 6000
	content := inv.OriginalContent
	if inv.TranslatedContent != "" {
		content = inv.TranslatedContent
	}
	if len(content) > maxSnippet {
		content = content[:maxSnippet]
	}
	if content == "" {
		return "(no extracted content)"
	}
	return content
}
