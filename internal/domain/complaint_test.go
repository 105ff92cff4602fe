package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-intake/internal/domain"
)

func TestMergeLastWriterWins(t *testing.T) {
	var record domain.ComplaintRecord

	deltas := record.Merge(domain.ComplaintRecord{PassengerName: "John Smith", Email: "john@example.com"})
	require.Len(t, deltas, 2)
	assert.Equal(t, "John Smith", record.PassengerName)

	deltas = record.Merge(domain.ComplaintRecord{PassengerName: "Jon Smith"})
	require.Len(t, deltas, 1)
	assert.Equal(t, domain.FieldPassengerName, deltas[0].Field)
	assert.Equal(t, "John Smith", deltas[0].OldValue)
	assert.Equal(t, "Jon Smith", deltas[0].NewValue)
	assert.Equal(t, "john@example.com", record.Email)
}

func TestMergeIdenticalProducesNoDeltas(t *testing.T) {
	var record domain.ComplaintRecord
	incoming := domain.ComplaintRecord{
		PassengerName: "Sarah Johnson",
		FlightNumber:  "BA789",
		Category:      domain.CategoryBaggage,
		BaggageLost:   true,
	}

	first := record.Merge(incoming)
	require.NotEmpty(t, first)

	second := record.Merge(incoming)
	assert.Empty(t, second)
}

func TestMergeNeverClearsFields(t *testing.T) {
	record := domain.ComplaintRecord{
		PassengerName: "Maria Garcia",
		Email:         "maria@example.com",
		FlightNumber:  "UA100",
		Description:   "stuck at the airport",
	}

	deltas := record.Merge(domain.ComplaintRecord{})
	assert.Empty(t, deltas)
	assert.Equal(t, "Maria Garcia", record.PassengerName)
	assert.Equal(t, "UA100", record.FlightNumber)
}

func TestMergeUnionsUrgencyMarkers(t *testing.T) {
	var record domain.ComplaintRecord

	deltas := record.Merge(domain.ComplaintRecord{UrgencyMarkers: []string{domain.MarkerMedical}})
	require.Len(t, deltas, 1)

	deltas = record.Merge(domain.ComplaintRecord{UrgencyMarkers: []string{domain.MarkerMedical, domain.MarkerInfant}})
	require.Len(t, deltas, 1)
	assert.Equal(t, domain.FieldUrgencyMarkers, deltas[0].Field)
	assert.Equal(t, domain.MarkerInfant, deltas[0].NewValue)
	assert.ElementsMatch(t, []string{domain.MarkerMedical, domain.MarkerInfant}, record.UrgencyMarkers)
}

func TestMissingFieldsOrder(t *testing.T) {
	var record domain.ComplaintRecord
	assert.Equal(t, []string{
		domain.MissingName,
		domain.MissingContact,
		domain.MissingFlightRef,
		domain.MissingDescription,
	}, record.MissingFields())

	record.PassengerName = "John Smith"
	record.Description = "lost bag"
	assert.Equal(t, []string{domain.MissingContact, domain.MissingFlightRef}, record.MissingFields())
}

func TestContactAndFlightAlternatives(t *testing.T) {
	record := domain.ComplaintRecord{
		PassengerName:    "John Smith",
		Phone:            "555-0123",
		BookingReference: "ABC123",
		Description:      "flight delayed",
	}
	assert.True(t, record.Complete())

	record.Phone = ""
	assert.Equal(t, []string{domain.MissingContact}, record.MissingFields())

	record.Email = "john@example.com"
	record.BookingReference = ""
	assert.Equal(t, []string{domain.MissingFlightRef}, record.MissingFields())
}
