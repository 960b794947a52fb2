package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// PaymentHistory is the self-reported repayment track record.
type PaymentHistory string

const (
	PaymentExcellent PaymentHistory = "excellent"
	PaymentGood      PaymentHistory = "good"
	PaymentFair      PaymentHistory = "fair"
	PaymentPoor      PaymentHistory = "poor"
)

const (
	MinScore = 300
	MaxScore = 900
)

// PredictionRequest is the form as the client collected it.
// Numeric fields travel as the client sent them (number or string); the
// orchestrator coerces them only when persisting.
type PredictionRequest struct {
	Income            Field `json:"income"`
	ExistingLoans     Field `json:"existingLoans"`
	PaymentHistory    Field `json:"paymentHistory"`
	CreditUtilization Field `json:"creditUtilization"`
	RecentInquiries   Field `json:"recentInquiries"`
}

// Field holds a raw JSON scalar (string, number, bool or null).
type Field struct {
	raw json.RawMessage
}

func NewField(v any) Field {
	b, _ := json.Marshal(v)
	return Field{raw: b}
}

func (f *Field) UnmarshalJSON(b []byte) error {
	f.raw = append(f.raw[:0], b...)
	return nil
}

func (f Field) MarshalJSON() ([]byte, error) {
	if len(f.raw) == 0 {
		return []byte("null"), nil
	}
	return f.raw, nil
}

// String is the textual form used when the value is embedded in a prompt.
// Strings are unquoted, absent values render as "undefined", JSON null as
// "null".
func (f Field) String() string {
	if len(f.raw) == 0 {
		return "undefined"
	}
	if f.IsNull() {
		return "null"
	}
	var s string
	if err := json.Unmarshal(f.raw, &s); err == nil {
		return s
	}
	return string(f.raw)
}

// IsNull reports an absent field or a JSON null.
func (f Field) IsNull() bool {
	return len(f.raw) == 0 || bytes.Equal(bytes.TrimSpace(f.raw), []byte("null"))
}

// Float reads the field as a floating-point number.
func (f Field) Float() (float64, error) {
	s := strings.TrimSpace(f.String())
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return v, nil
}

// Int reads the field as an integer, truncating any fractional part.
func (f Field) Int() (int, error) {
	v, err := f.Float()
	if err != nil {
		return 0, err
	}
	if v > math.MaxInt32 || v < math.MinInt32 {
		return 0, fmt.Errorf("%v is out of range", v)
	}
	return int(v), nil
}

// Factor is one weighted contributor to the predicted score.
type Factor struct {
	Name     string `json:"name"`
	Impact   int    `json:"impact"`
	Positive bool   `json:"positive"`
}

// Prediction is the structured answer returned to the caller.
type Prediction struct {
	PredictedScore int      `json:"predicted_score"`
	Factors        []Factor `json:"factors"`
	Suggestions    []string `json:"suggestions"`
}

// PredictionInput is the coerced form persisted with a record.
type PredictionInput struct {
	Income            float64 `json:"income"`
	ExistingLoans     int     `json:"existing_loans"`
	PaymentHistory    string  `json:"payment_history"`
	CreditUtilization int     `json:"credit_utilization"`
	RecentInquiries   int     `json:"recent_inquiries"`
}

// Coerce converts the raw request into typed persisted values.
func (r PredictionRequest) Coerce() (PredictionInput, error) {
	var in PredictionInput
	var err error
	if in.Income, err = r.Income.Float(); err != nil {
		return in, fmt.Errorf("%w: income: %v", ErrInvalidInput, err)
	}
	if in.ExistingLoans, err = r.ExistingLoans.Int(); err != nil {
		return in, fmt.Errorf("%w: existingLoans: %v", ErrInvalidInput, err)
	}
	if in.CreditUtilization, err = r.CreditUtilization.Int(); err != nil {
		return in, fmt.Errorf("%w: creditUtilization: %v", ErrInvalidInput, err)
	}
	if in.RecentInquiries, err = r.RecentInquiries.Int(); err != nil {
		return in, fmt.Errorf("%w: recentInquiries: %v", ErrInvalidInput, err)
	}
	if r.PaymentHistory.IsNull() {
		return in, fmt.Errorf("%w: paymentHistory is required", ErrInvalidInput)
	}
	in.PaymentHistory = r.PaymentHistory.String()
	return in, nil
}

// PredictionRecord is one row of cibil_predictions. Rows are never updated.
type PredictionRecord struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	PredictionInput
	PredictedScore int       `json:"predicted_score"`
	Factors        []Factor  `json:"factors"`
	Suggestions    []string  `json:"suggestions"`
	CreatedAt      time.Time `json:"created_at"`
}
