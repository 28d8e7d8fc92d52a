package model

import (
	"bytes"
	"encoding/json"
	"time"
)

// Sentinels used when the extraction leaves a field empty.
const (
	NotSpecified = "Not specified"
	DefaultName  = "New property"
)

// Property is one real-estate unit as held by the client.
type Property struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Location   string  `json:"location"`
	Type       string  `json:"type"`
	Price      float64 `json:"price"`
	Size       float64 `json:"size"`
	Completion string  `json:"completion"`
	Developer  string  `json:"developer"`

	PaymentPlan    string   `json:"paymentPlan,omitempty"`
	View           string   `json:"view,omitempty"`
	Floor          string   `json:"floor,omitempty"`
	Bedrooms       *int     `json:"bedrooms,omitempty"`
	Bathrooms      *int     `json:"bathrooms,omitempty"`
	Parking        *int     `json:"parking,omitempty"`
	Amenities      []string `json:"amenities,omitempty"`
	BuyerName      string   `json:"buyerName,omitempty"`
	BookingDate    string   `json:"bookingDate,omitempty"`
	AdditionalInfo string   `json:"additionalInfo,omitempty"`

	AddedAt       string       `json:"addedAt,omitempty"`
	LastCorrected string       `json:"lastCorrected,omitempty"`
	Corrections   []Correction `json:"corrections"`
}

// Correction is one entry of a property's correction history.
type Correction struct {
	Date   string   `json:"date"`
	Text   string   `json:"text"`
	Fields []string `json:"fields"`
}

// ParsedProperty is the extraction reply; every field may be null.
type ParsedProperty struct {
	Name           *string  `json:"name"`
	Location       *string  `json:"location"`
	Type           *string  `json:"type"`
	Price          *float64 `json:"price"`
	Size           *float64 `json:"size"`
	Completion     *string  `json:"completion"`
	Developer      *string  `json:"developer"`
	PaymentPlan    *string  `json:"paymentPlan"`
	View           *string  `json:"view"`
	Floor          *string  `json:"floor"`
	Bedrooms       *int     `json:"bedrooms"`
	Bathrooms      *int     `json:"bathrooms"`
	Parking        *int     `json:"parking"`
	Amenities      []string `json:"amenities"`
	BuyerName      *string  `json:"buyerName"`
	BookingDate    *string  `json:"bookingDate"`
	AdditionalInfo *string  `json:"additionalInfo"`
}

// ToProperty builds a new record, filling gaps with sentinel values.
func (p ParsedProperty) ToProperty(id int64, now time.Time) Property {
	return Property{
		ID:             id,
		Name:           strOr(p.Name, DefaultName),
		Location:       strOr(p.Location, NotSpecified),
		Type:           strOr(p.Type, NotSpecified),
		Price:          numOr(p.Price),
		Size:           numOr(p.Size),
		Completion:     strOr(p.Completion, NotSpecified),
		Developer:      strOr(p.Developer, NotSpecified),
		PaymentPlan:    strOr(p.PaymentPlan, ""),
		View:           strOr(p.View, ""),
		Floor:          strOr(p.Floor, ""),
		Bedrooms:       p.Bedrooms,
		Bathrooms:      p.Bathrooms,
		Parking:        p.Parking,
		Amenities:      nonEmpty(p.Amenities),
		BuyerName:      strOr(p.BuyerName, ""),
		BookingDate:    strOr(p.BookingDate, ""),
		AdditionalInfo: strOr(p.AdditionalInfo, ""),
		AddedAt:        now.UTC().Format(time.RFC3339),
		Corrections:    []Correction{},
	}
}

func strOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}

// nonEmpty drops empty lists so they round-trip through omitempty as nil.
func nonEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return cloneStrings(s)
}

func numOr(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

// protected fields are never patched by a correction.
var protected = map[string]bool{
	"id":            true,
	"corrections":   true,
	"addedAt":       true,
	"lastCorrected": true,
}

// Apply returns a copy of p with updates merged in. Keys that are unknown,
// protected, null or carry a value of the wrong type are skipped and reported.
func (p Property) Apply(updates map[string]json.RawMessage) (Property, []string) {
	out := p.Clone()
	var skipped []string

	for key, raw := range updates {
		if protected[key] || !knownFields[key] || isNull(raw) {
			skipped = append(skipped, key)
			continue
		}
		next, err := patchField(out, key, raw)
		if err != nil {
			skipped = append(skipped, key)
			continue
		}
		out = next
	}
	out.Amenities = nonEmpty(out.Amenities)

	return out, skipped
}

func isNull(raw json.RawMessage) bool {
	v := bytes.TrimSpace(raw)
	return len(v) == 0 || bytes.Equal(v, []byte("null"))
}

var knownFields = map[string]bool{
	"name": true, "location": true, "type": true, "price": true, "size": true,
	"completion": true, "developer": true, "paymentPlan": true, "view": true,
	"floor": true, "bedrooms": true, "bathrooms": true, "parking": true,
	"amenities": true, "buyerName": true, "bookingDate": true, "additionalInfo": true,
}

func patchField(p Property, key string, raw json.RawMessage) (Property, error) {
	base, err := json.Marshal(p)
	if err != nil {
		return p, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(base, &fields); err != nil {
		return p, err
	}
	fields[key] = raw

	patched, err := json.Marshal(fields)
	if err != nil {
		return p, err
	}
	var next Property
	if err := json.Unmarshal(patched, &next); err != nil {
		return p, err
	}
	return next, nil
}

// Clone deep-copies slices and pointers so the copy can be mutated freely.
func (p Property) Clone() Property {
	out := p
	out.Bedrooms = cloneInt(p.Bedrooms)
	out.Bathrooms = cloneInt(p.Bathrooms)
	out.Parking = cloneInt(p.Parking)
	out.Amenities = cloneStrings(p.Amenities)
	if p.Corrections != nil {
		out.Corrections = make([]Correction, len(p.Corrections))
		for i, c := range p.Corrections {
			c.Fields = cloneStrings(c.Fields)
			out.Corrections[i] = c
		}
	}
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append(make([]string, 0, len(s)), s...)
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}

// PricePerSqft is zero when the size is unknown.
func (p Property) PricePerSqft() float64 {
	if p.Size <= 0 {
		return 0
	}
	return p.Price / p.Size
}
