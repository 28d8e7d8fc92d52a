package prompts

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"propertylens_backend/internal/model"
	"propertylens_backend/pkg/completion"
	"propertylens_backend/pkg/i18n"
)

const propertySchema = `{
  "name": "Project name and unit number (e.g. Olaia Residences Unit 917)",
  "location": "District (e.g. Palm Jumeirah, Dubai Marina, Downtown Dubai)",
  "type": "Property type (e.g. 2BR Apartment, 5BR Duplex, Villa)",
  "price": number without commas or currency (e.g. 21712896),
  "size": area in sq.ft as a number (e.g. 4306.32),
  "completion": "Handover date (e.g. Q4 2027)",
  "developer": "Developer name",
  "paymentPlan": "Payment plan if present (e.g. 50/50, 60/40)",
  "view": "View if stated",
  "floor": "Floor if stated",
  "bedrooms": number of bedrooms as a number,
  "bathrooms": number of bathrooms as a number,
  "parking": number of parking spaces as a number,
  "amenities": ["list", "of", "amenities"],
  "buyerName": "Buyer name if present in a booking form",
  "bookingDate": "Booking date if present",
  "additionalInfo": "Any other important information"
}`

// FormatNumber prints a price or size without exponent or trailing zeros so
// the model sees the exact figure.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func ParseDocuments(fileNames []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze ALL uploaded real-estate documents (%d files: %s).\n\n", len(fileNames), strings.Join(fileNames, ", "))
	b.WriteString("These documents describe ONE property. Extract and merge the data from all of them.\n\n")
	b.WriteString("Return ONLY JSON (no markdown, no ```, plain JSON):\n")
	b.WriteString(propertySchema)
	b.WriteString("\n\nIf a field is not found in any document, use null.\n")
	b.WriteString("Give price and size as numbers without currency or commas.\n")
	b.WriteString("Combine information from all documents for the most complete picture.")
	return b.String()
}

func ParseText(text string) string {
	var b strings.Builder
	b.WriteString("Extract the property described in the text below.\n\n")
	fmt.Fprintf(&b, "TEXT:\n\"\"\"\n%s\n\"\"\"\n\n", text)
	b.WriteString("Return ONLY JSON (no markdown, no ```, plain JSON):\n")
	b.WriteString(propertySchema)
	b.WriteString("\n\nIf a field is not mentioned, use null.\n")
	b.WriteString("Give price and size as numbers without currency or commas.")
	return b.String()
}

const validationReply = `Return ONLY JSON (no markdown): {"isProperty": true or false, "reason": "<one sentence>"}`

// ValidateDocuments asks whether the attached PDFs describe real estate.
func ValidateDocuments(fileNames []string) string {
	return fmt.Sprintf("Do the attached documents (%s) describe a real-estate property, such as a brochure, sales offer, booking form or floor plan?\n%s",
		strings.Join(fileNames, ", "), validationReply)
}

func ValidateText(text string) string {
	return fmt.Sprintf("Does the following text describe a real-estate property?\n\nTEXT:\n\"\"\"\n%s\n\"\"\"\n\n%s", text, validationReply)
}

func Risk(p model.Property, lang string, now time.Time) string {
	price := FormatNumber(p.Price)
	currency := model.CurrencyFor(p.Location)

	var b strings.Builder
	b.WriteString("Analyze investment risk for this property.\n\n")
	b.WriteString("IMPORTANT: Use ONLY the data provided below. Do NOT substitute with market data or estimates.\n\n")
	b.WriteString("Property Details:\n")
	fmt.Fprintf(&b, "- Name: %s\n", p.Name)
	fmt.Fprintf(&b, "- Location: %s\n", p.Location)
	fmt.Fprintf(&b, "- Type: %s\n", p.Type)
	fmt.Fprintf(&b, "- Price: %s %s (use this EXACT price in your analysis)\n", price, currency)
	fmt.Fprintf(&b, "- Size: %s sq.ft\n", FormatNumber(p.Size))
	fmt.Fprintf(&b, "- Completion: %s\n", p.Completion)
	fmt.Fprintf(&b, "- Developer: %s\n", p.Developer)
	fmt.Fprintf(&b, "- Payment Plan: %s\n", orNotSpecified(p.PaymentPlan))
	if hint := completion.Hint(p.Completion, now); hint != "" {
		b.WriteString(hint)
		b.WriteString("\n")
	}
	if len(p.Corrections) > 0 {
		fmt.Fprintf(&b, "User corrections (authoritative): %s\n", correctionTexts(p.Corrections))
	}

	b.WriteString("\nEvaluate risk factors (0-100 scale, where 100 is highest risk):\n")
	b.WriteString("1. Developer risk (unknown developer = 70-100, established = 10-30)\n")
	b.WriteString("2. Timeline risk (>30 months = 60-80, <12 months = 10-25)\n")
	fmt.Fprintf(&b, "3. Price risk - analyze if %s %s is reasonable for %s\n", price, currency, p.Location)
	b.WriteString("4. Location risk (new area = 50-70, premium location = 10-25)\n")
	b.WriteString("5. Liquidity risk (hard to sell = 50-70, high demand = 10-25)\n\n")
	b.WriteString(i18n.Instruction(lang))
	b.WriteString("\n\nReturn ONLY valid JSON (no markdown, no ```):\n")
	fmt.Fprintf(&b, `{
  "overallRisk": <number 10-100>,
  "riskLevel": "<low|medium|high>",
  "factors": {
    "developer": {"score": <0-100>, "reason": "<explanation>"},
    "timeline": {"score": <0-100>, "reason": "<explanation>"},
    "price": {"score": <0-100>, "reason": "<explanation using the EXACT price %s>"},
    "location": {"score": <0-100>, "reason": "<explanation>"},
    "liquidity": {"score": <0-100>, "reason": "<explanation>"}
  },
  "summary": "<2-3 sentence summary>",
  "recommendations": ["<recommendation 1>", "<recommendation 2>", "<recommendation 3>"]
}`, price)
	return b.String()
}

func Correction(p model.Property, correction, lang string) string {
	var b strings.Builder
	b.WriteString("Analyze the user's correction and decide which fields of the property must be updated.\n\n")
	b.WriteString("CURRENT PROPERTY DATA:\n")
	fmt.Fprintf(&b, "- name: %q\n", p.Name)
	fmt.Fprintf(&b, "- location: %q\n", p.Location)
	fmt.Fprintf(&b, "- type: %q\n", p.Type)
	fmt.Fprintf(&b, "- price: %s (number in %s)\n", FormatNumber(p.Price), model.CurrencyFor(p.Location))
	fmt.Fprintf(&b, "- size: %s (number in sq.ft)\n", FormatNumber(p.Size))
	fmt.Fprintf(&b, "- completion: %q\n", p.Completion)
	fmt.Fprintf(&b, "- developer: %q\n", p.Developer)
	fmt.Fprintf(&b, "- paymentPlan: %q\n", orNotSpecified(p.PaymentPlan))
	fmt.Fprintf(&b, "- view: %q\n", orNotSpecified(p.View))
	fmt.Fprintf(&b, "- floor: %q\n", orNotSpecified(p.Floor))
	fmt.Fprintf(&b, "- bedrooms: %s\n", intOrNotSpecified(p.Bedrooms))
	fmt.Fprintf(&b, "- bathrooms: %s\n", intOrNotSpecified(p.Bathrooms))
	fmt.Fprintf(&b, "- parking: %s\n", intOrNotSpecified(p.Parking))

	fmt.Fprintf(&b, "\nUSER CORRECTION:\n%q\n\n", correction)
	b.WriteString("TASK:\n")
	b.WriteString("1. Decide which fields must change based on the correction\n")
	b.WriteString("2. Return ONLY the changed fields with their new values\n")
	b.WriteString("3. Explain what was changed\n\n")
	fmt.Fprintf(&b, "Write the explanation in the user's language. %s\n\n", i18n.Instruction(lang))
	b.WriteString("Return ONLY JSON (no markdown, no ```):\n")
	b.WriteString(`{
  "updates": { only the fields to change, e.g. "location": "Dubai Marina", "price": 15000000 },
  "explanation": "Short explanation of what was changed and why",
  "affectsRisk": true or false (true if developer, completion, location or price changed),
  "fieldsChanged": ["list", "of", "changed", "fields"]
}`)
	b.WriteString("\n\nIf the correction contains no data that changes a field (for example it is just a comment), return:\n")
	b.WriteString(`{"updates": {}, "explanation": "The correction does not change any property fields", "affectsRisk": false, "fieldsChanged": []}`)
	return b.String()
}

func orNotSpecified(s string) string {
	if s == "" {
		return model.NotSpecified
	}
	return s
}

func intOrNotSpecified(v *int) string {
	if v == nil {
		return model.NotSpecified
	}
	return strconv.Itoa(*v)
}

func correctionTexts(cs []model.Correction) string {
	texts := make([]string, 0, len(cs))
	for _, c := range cs {
		texts = append(texts, c.Text)
	}
	return strings.Join(texts, "; ")
}
