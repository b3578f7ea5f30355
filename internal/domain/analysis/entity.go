package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// ReportFilename is the name suggested for a downloaded report.
const ReportFilename = "BiasLens_Report.pdf"

// Dataset is the file selected by the user, held in memory until submission.
type Dataset struct {
	Name        string
	ContentType string
	Data        []byte
}

// ValidatedInput is what survives Validate: a dataset and a trimmed attribute name.
type ValidatedInput struct {
	File      *Dataset
	Attribute string
}

// AttributeType label reported by the analysis service
type AttributeType string

const (
	AttributeCategorical AttributeType = "categorical"
	AttributeNumeric     AttributeType = "numeric"
)

// Metric is a fairness statistic that may be missing or non-numeric in the payload.
// Anything other than a JSON number decodes to an invalid Metric instead of failing.
type Metric struct {
	Value float64
	Valid bool
}

// Known returns a valid metric.
func Known(v float64) Metric { return Metric{Value: v, Valid: true} }

// Float returns the value, or NaN when the metric is missing.
func (m Metric) Float() float64 {
	if !m.Valid {
		return math.NaN()
	}
	return m.Value
}

// Ptr returns nil for a missing metric.
func (m Metric) Ptr() *float64 {
	if !m.Valid {
		return nil
	}
	v := m.Value
	return &v
}

func (m *Metric) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	f, ok := v.(float64)
	*m = Metric{Value: f, Valid: ok}
	return nil
}

func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Valid || math.IsNaN(m.Value) || math.IsInf(m.Value, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}

// Share is one group of the sensitive attribute and the fraction of rows it holds.
type Share struct {
	Group    string
	Fraction float64
}

// Distribution keeps the group order of the JSON object it was decoded from.
type Distribution []Share

func (d *Distribution) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*d = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("group distribution: expected object, got %v", tok)
	}

	out := Distribution{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)

		var m Metric
		if err := dec.Decode(&m); err != nil {
			return fmt.Errorf("group distribution %q: %w", key, err)
		}
		out = append(out, Share{Group: key, Fraction: m.Float()})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*d = out
	return nil
}

func (d Distribution) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(s.Group)
		if err != nil {
			return nil, err
		}
		val, err := Known(s.Fraction).MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// AnalysisResult is the fairness report returned by the analysis service.
// It is never modified after ParseResult; a new analysis replaces it.
type AnalysisResult struct {
	Rows               int              `json:"rows"`
	SensitiveAttribute string           `json:"sensitive_attribute"`
	AttributeType      AttributeType    `json:"attribute_type"`
	GroupDistribution  Distribution     `json:"group_distribution"`
	DisparateImpact    Metric           `json:"disparate_impact"`
	ParityDifference   Metric           `json:"statistical_parity_difference"`
	Explanation        string           `json:"explanation"`
	Columns            []string         `json:"columns,omitempty"`
	Preview            []map[string]any `json:"preview,omitempty"`

	raw []byte
}

// ParseResult decodes a success payload and keeps the raw bytes for the report request.
// Anything but a JSON object is rejected; fields inside it are read leniently.
func ParseResult(raw []byte) (*AnalysisResult, error) {
	tok, err := json.NewDecoder(bytes.NewReader(raw)).Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected JSON object, got %v", tok)
	}

	var r AnalysisResult
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, err
	}
	r.raw = append([]byte(nil), raw...)
	return &r, nil
}

// UnmarshalJSON never fails on a field of the wrong type: that field is left at its
// zero value. Payloads from the older /dataset-bias contract carry the fractions
// under bias_metrics.
func (r *AnalysisResult) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	if fields == nil {
		return nil
	}

	*r = AnalysisResult{
		Rows:               looseInt(fields["rows"]),
		SensitiveAttribute: looseString(fields["sensitive_attribute"]),
		AttributeType:      AttributeType(looseString(fields["attribute_type"])),
		GroupDistribution:  looseDistribution(fields["group_distribution"]),
		DisparateImpact:    looseMetric(fields["disparate_impact"]),
		ParityDifference:   looseMetric(fields["statistical_parity_difference"]),
		Explanation:        looseString(fields["explanation"]),
		Columns:            looseStrings(fields["columns"]),
		Preview:            looseRows(fields["preview"]),
	}
	if r.GroupDistribution == nil {
		r.GroupDistribution = looseDistribution(fields["bias_metrics"])
	}
	return nil
}

func looseMetric(raw json.RawMessage) Metric {
	var m Metric
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &m)
	}
	return m
}

// looseInt accepts integral numbers only, 4.0 included.
func looseInt(raw json.RawMessage) int {
	m := looseMetric(raw)
	if !m.Valid || m.Value != math.Trunc(m.Value) || math.Abs(m.Value) > math.MaxInt32 {
		return 0
	}
	return int(m.Value)
}

func looseString(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

func looseDistribution(raw json.RawMessage) Distribution {
	var d Distribution
	if len(raw) == 0 || json.Unmarshal(raw, &d) != nil {
		return nil
	}
	return d
}

// looseStrings keeps the string elements of an array.
func looseStrings(raw json.RawMessage) []string {
	var items []any
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil || items == nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// looseRows keeps the object elements of an array.
func looseRows(raw json.RawMessage) []map[string]any {
	var items []any
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil || items == nil {
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		if row, ok := it.(map[string]any); ok {
			out = append(out, row)
		}
	}
	return out
}

// Payload returns the exact bytes received from the service, or the marshalled
// fields for results built in code.
func (r *AnalysisResult) Payload() ([]byte, error) {
	if r.raw != nil {
		return append([]byte(nil), r.raw...), nil
	}
	return json.Marshal(r)
}

// ReportArtifact is a generated report waiting to be saved.
type ReportArtifact struct {
	Filename    string
	ContentType string
	Data        []byte
}
