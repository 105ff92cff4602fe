package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/complaint-intake/internal/config"
	"github.com/spec-kit/complaint-intake/internal/domain"
	"github.com/spec-kit/complaint-intake/internal/service"
)

func newPolicy() *service.TriagePolicy {
	return service.NewTriagePolicy(config.TriageConfig{
		RefundAmountThreshold: 500,
		DelayHoursThreshold:   4,
	})
}

func TestTriageRuleTable(t *testing.T) {
	policy := newPolicy()

	cases := []struct {
		name     string
		record   domain.ComplaintRecord
		priority domain.TicketPriority
		slaHours int
		team     string
	}{
		{
			name:     "medical marker is critical",
			record:   domain.ComplaintRecord{UrgencyMarkers: []string{domain.MarkerMedical}},
			priority: domain.TicketPriorityCritical,
			slaHours: 2,
			team:     "Emergency Response",
		},
		{
			name:     "lost baggage is high",
			record:   domain.ComplaintRecord{Category: domain.CategoryBaggage, BaggageLost: true},
			priority: domain.TicketPriorityHigh,
			slaHours: 6,
			team:     "Priority Support",
		},
		{
			name:     "delay at threshold is high",
			record:   domain.ComplaintRecord{Category: domain.CategoryDelay, DelayHours: 4},
			priority: domain.TicketPriorityHigh,
			slaHours: 6,
			team:     "Priority Support",
		},
		{
			name:     "short delay is medium",
			record:   domain.ComplaintRecord{Category: domain.CategoryDelay, DelayHours: 3},
			priority: domain.TicketPriorityMedium,
			slaHours: 24,
			team:     "Customer Service",
		},
		{
			name:     "large refund is high",
			record:   domain.ComplaintRecord{Category: domain.CategoryRefund, RefundAmount: 500},
			priority: domain.TicketPriorityHigh,
			slaHours: 6,
			team:     "Priority Support",
		},
		{
			name:     "small refund is medium",
			record:   domain.ComplaintRecord{Category: domain.CategoryRefund, RefundAmount: 499.99},
			priority: domain.TicketPriorityMedium,
			slaHours: 24,
			team:     "Customer Service",
		},
		{
			name:     "repeat issue is high",
			record:   domain.ComplaintRecord{Category: domain.CategoryService, RepeatIssue: true},
			priority: domain.TicketPriorityHigh,
			slaHours: 6,
			team:     "Priority Support",
		},
		{
			name:     "positive feedback is low",
			record:   domain.ComplaintRecord{Category: domain.CategoryFeedback, Sentiment: domain.SentimentPositive},
			priority: domain.TicketPriorityLow,
			slaHours: 72,
			team:     "General Support",
		},
		{
			name:     "neutral feedback is low",
			record:   domain.ComplaintRecord{Category: domain.CategoryFeedback, Sentiment: domain.SentimentNeutral},
			priority: domain.TicketPriorityLow,
			slaHours: 72,
			team:     "General Support",
		},
		{
			name:     "very negative feedback is high",
			record:   domain.ComplaintRecord{Category: domain.CategoryFeedback, Sentiment: domain.SentimentVeryNegative},
			priority: domain.TicketPriorityHigh,
			slaHours: 6,
			team:     "Priority Support",
		},
		{
			name:     "default is medium",
			record:   domain.ComplaintRecord{Category: domain.CategoryService, Sentiment: domain.SentimentNegative},
			priority: domain.TicketPriorityMedium,
			slaHours: 24,
			team:     "Customer Service",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := policy.Evaluate(tc.record)
			assert.Equal(t, tc.priority, result.Priority)
			assert.Equal(t, tc.slaHours, result.SLAHours)
			assert.Equal(t, tc.team, result.AssignedTeam)
		})
	}
}

func TestTriageFirstMatchWins(t *testing.T) {
	policy := newPolicy()

	// Urgency markers outrank every category rule even when a later rule
	// would also match.
	record := domain.ComplaintRecord{
		Category:       domain.CategoryDelay,
		DelayHours:     10,
		Sentiment:      domain.SentimentVeryNegative,
		UrgencyMarkers: []string{domain.MarkerInfant, domain.MarkerMedical},
	}
	result := policy.Evaluate(record)
	assert.Equal(t, domain.TicketPriorityCritical, result.Priority)
	assert.Equal(t, 2, result.SLAHours)
}

func TestTriageIsDeterministic(t *testing.T) {
	policy := newPolicy()
	record := domain.ComplaintRecord{Category: domain.CategoryDelay, DelayHours: 5}

	first := policy.Evaluate(record)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, policy.Evaluate(record))
	}
}
