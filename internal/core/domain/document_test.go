package domain

import "testing"

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from    DocumentStatus
		to      DocumentStatus
		allowed bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusCompleted, false},
		{StatusProcessing, StatusCompleted, true},
		{StatusProcessing, StatusFailed, true},
		{StatusProcessing, StatusPending, false},
		{StatusCompleted, StatusPending, true},
		{StatusFailed, StatusPending, true},
		{StatusCompleted, StatusProcessing, false},
		{StatusFailed, StatusCompleted, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.allowed {
			t.Fatalf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.allowed, got)
		}
	}
}

func TestApplyExchangeRateRecomputesTotals(t *testing.T) {
	data := InvoiceData{
		Items: []InvoiceItem{
			{Rate: 50, Amount: 500},
			{Rate: 33.333, Amount: 166.665},
		},
		Totals:     InvoiceTotals{TotalCIFAmount: 1000},
		TotalValue: 9999, // model output is discarded
	}
	data.ApplyExchangeRate(4.2)

	if data.TotalValue != 4200.00 {
		t.Fatalf("expected total_value 4200.00, got %v", data.TotalValue)
	}
	if data.ConversionRate != 4.2 {
		t.Fatalf("expected conversion_rate 4.2, got %v", data.ConversionRate)
	}
	if data.Items[0].ConvertedAmount != 2100.00 {
		t.Fatalf("expected converted amount 2100.00, got %v", data.Items[0].ConvertedAmount)
	}
	if data.Items[1].ConvertedRate != 140.00 {
		t.Fatalf("expected rounded converted rate 140.00, got %v", data.Items[1].ConvertedRate)
	}
}

func TestParseKey(t *testing.T) {
	key, err := ParseKey("42")
	if err != nil || key.ID != 42 || key.GUID != "" {
		t.Fatalf("expected numeric key, got %+v err=%v", key, err)
	}

	key, err = ParseKey("8b9d1d0e-5a30-4f1c-9f37-0f3b7f6e0001")
	if err != nil || key.GUID == "" || key.ID != 0 {
		t.Fatalf("expected guid key, got %+v err=%v", key, err)
	}

	if _, err := ParseKey(""); !IsKind(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty key, got %v", err)
	}
	if _, err := ParseKey("0"); !IsKind(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero id, got %v", err)
	}
}

func TestFailureStages(t *testing.T) {
	if got := AnalysisFailedStage(KindCourierReceipt); got != "courier_receipt_analysis_failed" {
		t.Fatalf("unexpected stage: %q", got)
	}
	if got := ExtractionFailedStage(KindCustomDeclaration); got != "custom_declaration_extraction_failed" {
		t.Fatalf("unexpected stage: %q", got)
	}
}
