package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Category classifies the kind of incident a complaint describes.
type Category string

const (
	CategoryDelay    Category = "DELAY"
	CategoryBaggage  Category = "BAGGAGE"
	CategoryRefund   Category = "REFUND"
	CategoryService  Category = "SERVICE"
	CategoryFeedback Category = "FEEDBACK"
	CategoryOther    Category = "OTHER"
)

// Sentiment captures the tone of the passenger's messages.
type Sentiment string

const (
	SentimentPositive     Sentiment = "POSITIVE"
	SentimentNeutral      Sentiment = "NEUTRAL"
	SentimentNegative     Sentiment = "NEGATIVE"
	SentimentVeryNegative Sentiment = "VERY_NEGATIVE"
)

// Canonical urgency markers that escalate triage.
const (
	MarkerMedical        = "medical"
	MarkerInfant         = "infant"
	MarkerSafety         = "safety"
	MarkerStuckAtAirport = "stuck at airport"
)

// Field names used in deltas, history entries and missing-field prompts.
const (
	FieldPassengerName    = "passenger_name"
	FieldEmail            = "passenger_email"
	FieldPhone            = "passenger_phone"
	FieldFlightNumber     = "flight_number"
	FieldBookingReference = "booking_reference"
	FieldDescription      = "incident_description"
	FieldCategory         = "category"
	FieldSentiment        = "sentiment"
	FieldUrgencyMarkers   = "urgency_markers"
)

// Human-readable labels for unmet required fields, prompted in this order:
// identity and contact first, then flight identifiers, then description.
const (
	MissingName        = "passenger name"
	MissingContact     = "contact method (email or phone)"
	MissingFlightRef   = "flight number or booking reference"
	MissingDescription = "incident description"
)

// ComplaintRecord accumulates structured data extracted from a thread's
// messages. Zero values mean "not yet provided"; merging never clears a
// previously confirmed field.
type ComplaintRecord struct {
	PassengerName    string    `json:"passenger_name,omitempty"`
	Email            string    `json:"passenger_email,omitempty"`
	Phone            string    `json:"passenger_phone,omitempty"`
	FlightNumber     string    `json:"flight_number,omitempty"`
	BookingReference string    `json:"booking_reference,omitempty"`
	Description      string    `json:"incident_description,omitempty"`
	Category         Category  `json:"category,omitempty"`
	Sentiment        Sentiment `json:"sentiment,omitempty"`
	UrgencyMarkers   []string  `json:"urgency_markers,omitempty"`

	// Triage signals extracted alongside the core fields.
	DelayHours   int     `json:"delay_hours,omitempty"`
	RefundAmount float64 `json:"refund_amount,omitempty"`
	RepeatIssue  bool    `json:"repeat_issue,omitempty"`
	BaggageLost  bool    `json:"baggage_lost,omitempty"`
}

// FieldDelta records a single field change produced by a merge.
type FieldDelta struct {
	Field    string `json:"field"`
	OldValue string `json:"old_value,omitempty"`
	NewValue string `json:"new_value"`
}

// Merge folds fields present in the incoming partial record into the
// receiver. Last writer wins per field; urgency markers accumulate by
// union; fields absent from the incoming record are left untouched. The
// returned deltas list exactly the fields that changed, so merging an
// identical record twice yields no deltas the second time.
func (r *ComplaintRecord) Merge(in ComplaintRecord) []FieldDelta {
	var deltas []FieldDelta

	setString := func(field string, dst *string, val string) {
		if val == "" || val == *dst {
			return
		}
		deltas = append(deltas, FieldDelta{Field: field, OldValue: *dst, NewValue: val})
		*dst = val
	}

	setString(FieldPassengerName, &r.PassengerName, in.PassengerName)
	setString(FieldEmail, &r.Email, in.Email)
	setString(FieldPhone, &r.Phone, in.Phone)
	setString(FieldFlightNumber, &r.FlightNumber, in.FlightNumber)
	setString(FieldBookingReference, &r.BookingReference, in.BookingReference)
	setString(FieldDescription, &r.Description, in.Description)

	if in.Category != "" && in.Category != r.Category {
		deltas = append(deltas, FieldDelta{Field: FieldCategory, OldValue: string(r.Category), NewValue: string(in.Category)})
		r.Category = in.Category
	}
	if in.Sentiment != "" && in.Sentiment != r.Sentiment {
		deltas = append(deltas, FieldDelta{Field: FieldSentiment, OldValue: string(r.Sentiment), NewValue: string(in.Sentiment)})
		r.Sentiment = in.Sentiment
	}

	if added := r.addMarkers(in.UrgencyMarkers); len(added) > 0 {
		deltas = append(deltas, FieldDelta{Field: FieldUrgencyMarkers, NewValue: strings.Join(added, ", ")})
	}

	if in.DelayHours > 0 && in.DelayHours != r.DelayHours {
		deltas = append(deltas, FieldDelta{Field: "delay_hours", OldValue: intString(r.DelayHours), NewValue: intString(in.DelayHours)})
		r.DelayHours = in.DelayHours
	}
	if in.RefundAmount > 0 && in.RefundAmount != r.RefundAmount {
		deltas = append(deltas, FieldDelta{Field: "refund_amount", OldValue: floatString(r.RefundAmount), NewValue: floatString(in.RefundAmount)})
		r.RefundAmount = in.RefundAmount
	}
	if in.RepeatIssue && !r.RepeatIssue {
		deltas = append(deltas, FieldDelta{Field: "repeat_issue", NewValue: "true"})
		r.RepeatIssue = true
	}
	if in.BaggageLost && !r.BaggageLost {
		deltas = append(deltas, FieldDelta{Field: "baggage_lost", NewValue: "true"})
		r.BaggageLost = true
	}

	return deltas
}

// addMarkers unions new markers into the record and returns the ones that
// were not already present, in sorted order for deterministic deltas.
func (r *ComplaintRecord) addMarkers(markers []string) []string {
	var added []string
	for _, m := range markers {
		m = strings.ToLower(strings.TrimSpace(m))
		if m == "" || r.HasMarker(m) {
			continue
		}
		r.UrgencyMarkers = append(r.UrgencyMarkers, m)
		added = append(added, m)
	}
	sort.Strings(added)
	return added
}

// HasMarker reports whether any of the given urgency markers is present.
func (r ComplaintRecord) HasMarker(markers ...string) bool {
	for _, want := range markers {
		for _, have := range r.UrgencyMarkers {
			if strings.EqualFold(have, want) {
				return true
			}
		}
	}
	return false
}

// MissingFields evaluates the required field set for ticket creation:
// passenger name, one contact method, a flight identifier, and an incident
// description. The returned order is fixed so repeated prompts stay
// deterministic as answers accumulate.
func (r ComplaintRecord) MissingFields() []string {
	var missing []string
	if r.PassengerName == "" {
		missing = append(missing, MissingName)
	}
	if r.Email == "" && r.Phone == "" {
		missing = append(missing, MissingContact)
	}
	if r.FlightNumber == "" && r.BookingReference == "" {
		missing = append(missing, MissingFlightRef)
	}
	if r.Description == "" {
		missing = append(missing, MissingDescription)
	}
	return missing
}

// Complete reports whether the required field set is satisfied.
func (r ComplaintRecord) Complete() bool {
	return len(r.MissingFields()) == 0
}

func intString(v int) string {
	if v == 0 {
		return ""
	}
	return fmt.Sprintf("%d", v)
}

func floatString(v float64) string {
	if v == 0 {
		return ""
	}
	return fmt.Sprintf("%.2f", v)
}
