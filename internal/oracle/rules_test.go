package oracle_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-intake/internal/domain"
	"github.com/spec-kit/complaint-intake/internal/oracle"
)

func TestRuleOracleExtractsFullComplaint(t *testing.T) {
	o := oracle.NewRuleOracle()

	extraction, err := o.Extract(context.Background(),
		"My name is John Smith, my email is john.smith@example.com and my phone number is 555-0123. "+
			"My flight AA447 was delayed by 5 hours.", domain.ComplaintRecord{})
	require.NoError(t, err)

	fields := extraction.Fields
	assert.Equal(t, "John Smith", fields.PassengerName)
	assert.Equal(t, "john.smith@example.com", fields.Email)
	assert.Equal(t, "555-0123", fields.Phone)
	assert.Equal(t, "AA447", fields.FlightNumber)
	assert.Equal(t, domain.CategoryDelay, fields.Category)
	assert.Equal(t, 5, fields.DelayHours)
	assert.NotEmpty(t, fields.Description)
	assert.True(t, extraction.Classification.IsComplaint)
	assert.InDelta(t, 0.9, extraction.Classification.Confidence, 0.001)
}

func TestRuleOracleTrivialMessagesAreEmpty(t *testing.T) {
	o := oracle.NewRuleOracle()

	for _, msg := range []string{"ok", "Thanks", "  thank you  ", "sure", ""} {
		extraction, err := o.Extract(context.Background(), msg, domain.ComplaintRecord{})
		require.NoError(t, err)
		assert.True(t, extraction.Empty(), "message %q should extract nothing", msg)
	}
}

func TestRuleOracleBookingReference(t *testing.T) {
	o := oracle.NewRuleOracle()

	extraction, err := o.Extract(context.Background(),
		"I need a refund for booking reference abc123, it cost me $650.", domain.ComplaintRecord{})
	require.NoError(t, err)

	fields := extraction.Fields
	assert.Equal(t, "ABC123", fields.BookingReference)
	assert.Equal(t, domain.CategoryRefund, fields.Category)
	assert.InDelta(t, 650, fields.RefundAmount, 0.001)
}

func TestRuleOracleDetectsUrgencyMarkers(t *testing.T) {
	o := oracle.NewRuleOracle()

	extraction, err := o.Extract(context.Background(),
		"My baby needs a doctor and it feels unsafe here, we are stuck at the airport. This is a complaint.",
		domain.ComplaintRecord{})
	require.NoError(t, err)

	fields := extraction.Fields
	assert.ElementsMatch(t, []string{
		domain.MarkerMedical,
		domain.MarkerInfant,
		domain.MarkerSafety,
		domain.MarkerStuckAtAirport,
	}, fields.UrgencyMarkers)
}

func TestRuleOracleLostBaggage(t *testing.T) {
	o := oracle.NewRuleOracle()

	extraction, err := o.Extract(context.Background(),
		"My luggage was lost on flight BA789 and nobody is helping.", domain.ComplaintRecord{})
	require.NoError(t, err)

	fields := extraction.Fields
	assert.Equal(t, domain.CategoryBaggage, fields.Category)
	assert.True(t, fields.BaggageLost)
	assert.Equal(t, "BA789", fields.FlightNumber)
	assert.Equal(t, domain.SentimentNegative, fields.Sentiment)
}

func TestRuleOracleRepeatIssueAndVeryNegative(t *testing.T) {
	o := oracle.NewRuleOracle()

	extraction, err := o.Extract(context.Background(),
		"This is the second time I complain about your terrible service.", domain.ComplaintRecord{})
	require.NoError(t, err)

	fields := extraction.Fields
	assert.True(t, fields.RepeatIssue)
	assert.Equal(t, domain.SentimentVeryNegative, fields.Sentiment)
}
