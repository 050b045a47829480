package submission

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestEncodeEnvelope_WireFormat(t *testing.T) {
	body, err := EncodeEnvelope(map[string]int{"qty": 1}, "SIG", "", "")
	if err != nil {
		t.Fatalf("EncodeEnvelope failed: %v", err)
	}

	want := `{"document_format":"MANUAL","product_document":"{\"qty\":1}","signature":"SIG","type":"LP_INTRODUCE_GOODS"}`
	if string(body) != want {
		t.Errorf("expected %s, got %s", want, body)
	}
}

func TestEncodeEnvelope_Variants(t *testing.T) {
	tests := []struct {
		name     string
		document any
		format   DocumentFormat
		docType  string
		wantDoc  string
	}{
		{
			name:     "struct document",
			document: struct{ Owner string `json:"owner"` }{Owner: "7700000000"},
			wantDoc:  `{"owner":"7700000000"}`,
		},
		{
			name:     "raw message is compacted",
			document: json.RawMessage(`{ "a" : [1, 2] }`),
			wantDoc:  `{"a":[1,2]}`,
		},
		{
			name:     "html is not escaped",
			document: map[string]string{"note": "<b>&</b>"},
			wantDoc:  `{"note":"<b>&</b>"}`,
		},
		{
			name:     "explicit format and type",
			document: []int{1},
			format:   FormatCSV,
			docType:  "LP_SHIP_GOODS",
			wantDoc:  `[1]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := EncodeEnvelope(tt.document, "sig", tt.format, tt.docType)
			if err != nil {
				t.Fatalf("EncodeEnvelope failed: %v", err)
			}

			var env Envelope
			if err := json.Unmarshal(body, &env); err != nil {
				t.Fatalf("envelope is not valid JSON: %v", err)
			}
			if env.ProductDocument != tt.wantDoc {
				t.Errorf("expected product_document %s, got %s", tt.wantDoc, env.ProductDocument)
			}

			wantFormat := tt.format
			if wantFormat == "" {
				wantFormat = FormatManual
			}
			if env.DocumentFormat != wantFormat {
				t.Errorf("expected format %s, got %s", wantFormat, env.DocumentFormat)
			}

			wantType := tt.docType
			if wantType == "" {
				wantType = DocumentTypeIntroduceGoods
			}
			if env.Type != wantType {
				t.Errorf("expected type %s, got %s", wantType, env.Type)
			}
		})
	}
}

func TestEncodeEnvelope_UnencodableDocument(t *testing.T) {
	_, err := EncodeEnvelope(map[string]any{"ch": make(chan int)}, "sig", "", "")

	var encodeErr *EncodeError
	if !errors.As(err, &encodeErr) {
		t.Fatalf("expected EncodeError, got %v", err)
	}
	if encodeErr.Stage != "document" {
		t.Errorf("expected stage document, got %s", encodeErr.Stage)
	}
	if !errors.Is(err, ErrSubmissionFailed) {
		t.Error("expected error to match ErrSubmissionFailed")
	}
}

func TestParseDocumentFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    DocumentFormat
		wantErr bool
	}{
		{"MANUAL", FormatManual, false},
		{"xml", FormatXML, false},
		{" Csv ", FormatCSV, false},
		{"", "", true},
		{"PDF", "", true},
	}

	for _, tt := range tests {
		got, err := ParseDocumentFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDocumentFormat(%q): expected error=%v, got %v", tt.in, tt.wantErr, err)
		}
		if got != tt.want {
			t.Errorf("ParseDocumentFormat(%q): expected %s, got %s", tt.in, tt.want, got)
		}
	}
}
