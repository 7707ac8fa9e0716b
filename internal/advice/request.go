package advice

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"shouldibuy/internal/pile"
)

// Amount is a money field as the user typed it. JSON strings and numbers are
// both accepted; the raw text is what goes into the prompt.
type Amount struct {
	Raw string
}

// NewAmount wraps user-entered text.
func NewAmount(raw string) Amount {
	return Amount{Raw: strings.TrimSpace(raw)}
}

// Value parses the amount, degrading to 0 on anything unparseable.
func (a Amount) Value() float64 {
	return pile.ParseAmount(a.Raw)
}

func (a Amount) String() string { return a.Raw }

// UnmarshalJSON accepts "4000", 4000 and null.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		a.Raw = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		a.Raw = strings.TrimSpace(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("amount must be a string or number: %w", err)
		}
		a.Raw = n.String()
		return nil
	}
}

// MarshalJSON emits the raw text as a JSON string.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(a.Raw)), nil
}

// Request is one "should I buy it?" question.
type Request struct {
	MonthlyIncome Amount `json:"monthlyIncome"`
	ItemName      string `json:"itemName"`
	ItemPrice     Amount `json:"itemPrice"`
}

// Validate reports the first missing field.
func (r Request) Validate() error {
	if r.MonthlyIncome.Raw == "" {
		return fmt.Errorf("monthlyIncome is required")
	}
	if strings.TrimSpace(r.ItemName) == "" {
		return fmt.Errorf("itemName is required")
	}
	if r.ItemPrice.Raw == "" {
		return fmt.Errorf("itemPrice is required")
	}
	return nil
}

// Response is the success body.
type Response struct {
	Message string `json:"message"`
}
