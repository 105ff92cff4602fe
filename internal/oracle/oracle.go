// Package oracle abstracts the classify-and-extract capability behind the
// intake core. Implementations turn a free-text message plus accumulated
// context into a partial complaint record; the decision engine stays fully
// deterministic regardless of which oracle backs it.
package oracle

import (
	"context"
	"errors"

	"github.com/spec-kit/complaint-intake/internal/domain"
)

// ErrUnavailable marks a collaborator-unavailable condition. It is the
// only error an Oracle may return; malformed input or uninterpretable
// model output must degrade to an empty Extraction instead.
var ErrUnavailable = errors.New("extraction oracle unavailable")

// Classification is the oracle's judgment about the message as a whole.
type Classification struct {
	IsComplaint bool
	Confidence  float64
}

// Extraction is a partial complaint record: only the fields present in the
// analyzed message are set.
type Extraction struct {
	Fields         domain.ComplaintRecord
	Classification Classification
}

// Empty reports whether the oracle found no usable fields.
func (e Extraction) Empty() bool {
	f := e.Fields
	return f.PassengerName == "" && f.Email == "" && f.Phone == "" &&
		f.FlightNumber == "" && f.BookingReference == "" && f.Description == "" &&
		f.Category == "" && f.Sentiment == "" && len(f.UrgencyMarkers) == 0 &&
		f.DelayHours == 0 && f.RefundAmount == 0 && !f.RepeatIssue && !f.BaggageLost
}

// Oracle converts free text into structured partial data.
type Oracle interface {
	Extract(ctx context.Context, message string, known domain.ComplaintRecord) (Extraction, error)
}
