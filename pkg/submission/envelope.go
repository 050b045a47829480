package submission

import (
	"bytes"
	"encoding/json"
)

// EncodeEnvelope serializes document and wraps it with signature into the
// wire envelope. An empty format or docType takes the default.
func EncodeEnvelope(document any, signature string, format DocumentFormat, docType string) ([]byte, error) {
	productDocument, err := encodeDocument(document)
	if err != nil {
		return nil, &EncodeError{Stage: "document", Cause: err}
	}
	return encodeEnvelope(productDocument, signature, format, docType)
}

func encodeDocument(document any) ([]byte, error) {
	return marshalJSON(document)
}

func encodeEnvelope(productDocument []byte, signature string, format DocumentFormat, docType string) ([]byte, error) {
	if format == "" {
		format = FormatManual
	}
	if docType == "" {
		docType = DocumentTypeIntroduceGoods
	}

	body, err := marshalJSON(Envelope{
		DocumentFormat:  format,
		ProductDocument: string(productDocument),
		Signature:       signature,
		Type:            docType,
	})
	if err != nil {
		return nil, &EncodeError{Stage: "envelope", Cause: err}
	}
	return body, nil
}

// marshalJSON is json.Marshal without HTML escaping and without the
// trailing newline added by json.Encoder.
func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
