package predictor

import (
	"encoding/json"
	"fmt"
)

// Payload is a prediction request body. Numeric fields are features; the
// optional date_time field supplies the timestamp dayOfWeek and hour are
// derived from when they are not given explicitly. Unknown non-numeric
// fields are ignored.
type Payload struct {
	Fields   map[string]float64
	DateTime string
}

// UnmarshalJSON separates numeric feature fields from the date_time string.
func (p *Payload) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	p.Fields = make(map[string]float64, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case float64:
			p.Fields[key] = v
		case string:
			if key == "date_time" {
				p.DateTime = v
			}
		}
	}
	return nil
}

// Has reports whether a feature was given explicitly.
func (p Payload) Has(name string) bool {
	_, ok := p.Fields[name]
	return ok
}

// Get returns an explicitly given feature value.
func (p Payload) Get(name string) (float64, bool) {
	v, ok := p.Fields[name]
	return v, ok
}

func (p Payload) String() string {
	return fmt.Sprintf("payload(%d fields, date_time=%q)", len(p.Fields), p.DateTime)
}
