package oracle

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/spec-kit/complaint-intake/internal/domain"
)

// RuleOracle is a deterministic keyword/regex extractor. It backs the
// service when no model API key is configured and gives tests a stable
// oracle, at the cost of natural-language coverage.
type RuleOracle struct{}

// NewRuleOracle returns the deterministic extractor.
func NewRuleOracle() *RuleOracle {
	return &RuleOracle{}
}

var trivialMessages = map[string]struct{}{
	"ok": {}, "okay": {}, "thanks": {}, "thank you": {}, "yes": {}, "no": {},
	"sure": {}, "got it": {}, "understood": {}, "alright": {}, "fine": {},
	"good": {}, "great": {},
}

var (
	emailPattern   = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phonePattern   = regexp.MustCompile(`\+?\d[\d\s().\-]{5,}\d`)
	flightPattern  = regexp.MustCompile(`\b[A-Z]{2}\d{2,4}\b`)
	bookingPattern = regexp.MustCompile(`(?i)\b(?:booking(?:\s+reference)?|reference|confirmation|pnr)[:\s#]+([A-Za-z0-9]{5,8})\b`)
	namePattern    = regexp.MustCompile(`(?i:my name is|i am|i['’]m|this is)\s+([A-Z][a-zA-Z'.\-]*(?:\s+[A-Z][a-zA-Z'.\-]*){0,2})`)
	delayPatterns  = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(\d{1,2})[\s\-]*hours?\s+delay`),
		regexp.MustCompile(`(?i)delayed\s+(?:by\s+|for\s+)?(\d{1,2})\s*hours?`),
	}
	amountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`[$€£]\s?(\d+(?:\.\d{1,2})?)`),
		regexp.MustCompile(`(?i)\b(\d+(?:\.\d{1,2})?)\s?(?:dollars|usd|eur)\b`),
	}
)

// Extract never fails; an unparseable message yields an empty extraction.
func (o *RuleOracle) Extract(_ context.Context, message string, _ domain.ComplaintRecord) (Extraction, error) {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return Extraction{}, nil
	}
	if _, trivial := trivialMessages[strings.ToLower(trimmed)]; trivial {
		return Extraction{}, nil
	}

	lower := strings.ToLower(trimmed)
	var fields domain.ComplaintRecord

	if m := emailPattern.FindString(trimmed); m != "" {
		fields.Email = m
	}
	// Strip emails before phone matching so digits inside addresses are
	// not mistaken for phone numbers.
	withoutEmails := emailPattern.ReplaceAllString(trimmed, " ")
	for _, candidate := range phonePattern.FindAllString(withoutEmails, -1) {
		if digits := countDigits(candidate); digits >= 7 && digits <= 15 {
			fields.Phone = strings.TrimSpace(candidate)
			break
		}
	}
	if m := flightPattern.FindString(strings.ToUpper(withoutEmails)); m != "" {
		fields.FlightNumber = m
	}
	if m := bookingPattern.FindStringSubmatch(trimmed); m != nil {
		fields.BookingReference = strings.ToUpper(m[1])
	}
	if m := namePattern.FindStringSubmatch(trimmed); m != nil {
		fields.PassengerName = strings.TrimSpace(m[1])
	}

	for _, pattern := range delayPatterns {
		if m := pattern.FindStringSubmatch(trimmed); m != nil {
			if hours, err := strconv.Atoi(m[1]); err == nil {
				fields.DelayHours = hours
				break
			}
		}
	}
	for _, pattern := range amountPatterns {
		if m := pattern.FindStringSubmatch(trimmed); m != nil {
			if amount, err := strconv.ParseFloat(m[1], 64); err == nil {
				fields.RefundAmount = amount
				break
			}
		}
	}

	fields.Category = classifyCategory(lower)
	fields.UrgencyMarkers = detectMarkers(lower)
	fields.RepeatIssue = containsAny(lower,
		"again", "second time", "third time", "already complained", "every time", "repeatedly")
	if fields.Category == domain.CategoryBaggage {
		fields.BaggageLost = containsAny(lower,
			"lost", "never arrived", "missing", "didn't arrive", "did not arrive", "disappeared")
	}

	veryNegative := containsAny(lower,
		"terrible", "horrible", "worst", "furious", "outraged", "unacceptable", "disgust", "awful")
	complaintWording := containsAny(lower, "complaint", "complain", "issue", "problem")
	isComplaint := fields.Category != "" || complaintWording || veryNegative

	switch {
	case veryNegative:
		fields.Sentiment = domain.SentimentVeryNegative
	case isComplaint:
		fields.Sentiment = domain.SentimentNegative
	case fields.Category == domain.CategoryFeedback:
		fields.Sentiment = domain.SentimentPositive
	case containsAny(lower, "thank", "great", "excellent", "wonderful", "amazing"):
		fields.Sentiment = domain.SentimentPositive
	}
	if fields.Category == domain.CategoryFeedback && !veryNegative && !complaintWording {
		fields.Sentiment = domain.SentimentPositive
	}

	if isComplaint {
		fields.Description = trimmed
	}

	confidence := 0.5
	if fields.Category != "" {
		confidence = 0.9
	}
	return Extraction{
		Fields:         fields,
		Classification: Classification{IsComplaint: isComplaint, Confidence: confidence},
	}, nil
}

func classifyCategory(lower string) domain.Category {
	switch {
	case containsAny(lower, "baggage", "luggage", "suitcase", "my bag", "bags"):
		return domain.CategoryBaggage
	case containsAny(lower, "delay", "postponed", "cancelled", "cancellation"):
		return domain.CategoryDelay
	case containsAny(lower, "refund", "reimburs", "money back", "compensation"):
		return domain.CategoryRefund
	case containsAny(lower, "feedback", "compliment", "great service", "excellent service"):
		return domain.CategoryFeedback
	case containsAny(lower, "rude", "staff", "crew", "attendant", "unhelpful", "service"):
		return domain.CategoryService
	case containsAny(lower, "complaint", "complain"):
		return domain.CategoryOther
	default:
		return ""
	}
}

func detectMarkers(lower string) []string {
	var markers []string
	if containsAny(lower, "medical", "doctor", "hospital", "injur", "wheelchair", "emergency") {
		markers = append(markers, domain.MarkerMedical)
	}
	if containsAny(lower, "infant", "baby", "toddler", "newborn") {
		markers = append(markers, domain.MarkerInfant)
	}
	if containsAny(lower, "safety", "unsafe", "danger") {
		markers = append(markers, domain.MarkerSafety)
	}
	if containsAny(lower, "stuck at the airport", "stuck at airport") {
		markers = append(markers, domain.MarkerStuckAtAirport)
	}
	return markers
}

func containsAny(text string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(text, needle) {
			return true
		}
	}
	return false
}

func countDigits(s string) int {
	count := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			count++
		}
	}
	return count
}
