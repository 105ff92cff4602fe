package service

import (
	"github.com/spec-kit/complaint-intake/internal/config"
	"github.com/spec-kit/complaint-intake/internal/domain"
)

// TriageResult is the outcome of the priority rule table.
type TriageResult struct {
	Priority     domain.TicketPriority
	SLAHours     int
	AssignedTeam string
}

// TriagePolicy computes priority and SLA from extracted signals. The rule
// table is evaluated top to bottom, first match wins, so triage stays
// reproducible independent of any single oracle call's phrasing.
type TriagePolicy struct {
	refundThreshold float64
	delayThreshold  int
}

// NewTriagePolicy builds the policy from configured thresholds.
func NewTriagePolicy(cfg config.TriageConfig) *TriagePolicy {
	refund := cfg.RefundAmountThreshold
	if refund <= 0 {
		refund = 500
	}
	delay := cfg.DelayHoursThreshold
	if delay <= 0 {
		delay = 4
	}
	return &TriagePolicy{refundThreshold: refund, delayThreshold: delay}
}

var teamByPriority = map[domain.TicketPriority]string{
	domain.TicketPriorityCritical: "Emergency Response",
	domain.TicketPriorityHigh:     "Priority Support",
	domain.TicketPriorityMedium:   "Customer Service",
	domain.TicketPriorityLow:      "General Support",
}

// Evaluate applies the rule table to the merged record.
func (p *TriagePolicy) Evaluate(r domain.ComplaintRecord) TriageResult {
	switch {
	case r.HasMarker(domain.MarkerMedical, domain.MarkerInfant, domain.MarkerSafety):
		return result(domain.TicketPriorityCritical, 2)
	case r.Category == domain.CategoryBaggage && r.BaggageLost,
		r.Category == domain.CategoryDelay && r.DelayHours >= p.delayThreshold:
		return result(domain.TicketPriorityHigh, 6)
	case r.Category == domain.CategoryRefund && r.RefundAmount >= p.refundThreshold,
		r.RepeatIssue:
		return result(domain.TicketPriorityHigh, 6)
	case r.Category == domain.CategoryFeedback &&
		(r.Sentiment == domain.SentimentPositive || r.Sentiment == domain.SentimentNeutral):
		return result(domain.TicketPriorityLow, 72)
	case r.Sentiment == domain.SentimentVeryNegative:
		return result(domain.TicketPriorityHigh, 6)
	default:
		return result(domain.TicketPriorityMedium, 24)
	}
}

func result(priority domain.TicketPriority, slaHours int) TriageResult {
	return TriageResult{
		Priority:     priority,
		SLAHours:     slaHours,
		AssignedTeam: teamByPriority[priority],
	}
}
