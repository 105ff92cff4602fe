package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-intake/internal/config"
	"github.com/spec-kit/complaint-intake/internal/domain"
)

const extractionSystemPrompt = `You are an airline customer service assistant. Extract structured complaint data from the passenger's message, considering the already-known context. Respond with a single JSON object with these keys (omit keys the message says nothing about):
"passenger_name", "passenger_email", "passenger_phone", "flight_number", "booking_reference", "incident_description",
"category" (one of DELAY, BAGGAGE, REFUND, SERVICE, FEEDBACK, OTHER),
"sentiment" (one of POSITIVE, NEUTRAL, NEGATIVE, VERY_NEGATIVE),
"urgency_markers" (array of strings such as "medical", "infant", "safety", "stuck at airport"),
"delay_hours" (integer), "refund_amount" (number), "repeat_issue" (boolean), "baggage_lost" (boolean),
"is_complaint" (boolean), "confidence" (number 0-1).`

// ChatOracle extracts complaint data via an OpenAI-compatible
// chat-completions endpoint using JSON-mode structured output.
type ChatOracle struct {
	client *resty.Client
	model  string
	logger *zap.Logger
}

// NewChatOracle builds the client from configuration.
func NewChatOracle(cfg config.OracleConfig, logger *zap.Logger) *ChatOracle {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(cfg.APIKey).
		SetTimeout(cfg.Timeout())

	return &ChatOracle{client: client, model: cfg.Model, logger: logger}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// extractionPayload is the wire shape the model is asked to produce.
type extractionPayload struct {
	PassengerName    string   `json:"passenger_name"`
	PassengerEmail   string   `json:"passenger_email"`
	PassengerPhone   string   `json:"passenger_phone"`
	FlightNumber     string   `json:"flight_number"`
	BookingReference string   `json:"booking_reference"`
	Description      string   `json:"incident_description"`
	Category         string   `json:"category"`
	Sentiment        string   `json:"sentiment"`
	UrgencyMarkers   []string `json:"urgency_markers"`
	DelayHours       int      `json:"delay_hours"`
	RefundAmount     float64  `json:"refund_amount"`
	RepeatIssue      bool     `json:"repeat_issue"`
	BaggageLost      bool     `json:"baggage_lost"`
	IsComplaint      bool     `json:"is_complaint"`
	Confidence       float64  `json:"confidence"`
}

// Extract sends the message plus known context to the model. Network and
// server failures return ErrUnavailable (retryable by the caller); a
// response the model garbled degrades to an empty extraction.
func (o *ChatOracle) Extract(ctx context.Context, message string, known domain.ComplaintRecord) (Extraction, error) {
	req := chatRequest{
		Model:       o.model,
		Temperature: 0.1,
		Messages: []chatMessage{
			{Role: "system", Content: extractionSystemPrompt},
			{Role: "user", Content: o.userPrompt(message, known)},
		},
	}
	req.ResponseFormat.Type = "json_object"

	resp, err := o.client.R().
		SetContext(ctx).
		SetBody(&req).
		SetResult(&chatResponse{}).
		Post("/v1/chat/completions")
	if err != nil {
		return Extraction{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return Extraction{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode())
	}

	chat, ok := resp.Result().(*chatResponse)
	if !ok || len(chat.Choices) == 0 {
		o.logger.Warn("oracle returned no choices")
		return Extraction{}, nil
	}

	var payload extractionPayload
	if err := json.Unmarshal([]byte(chat.Choices[0].Message.Content), &payload); err != nil {
		o.logger.Warn("oracle output not parseable, treating as empty extraction", zap.Error(err))
		return Extraction{}, nil
	}
	return payload.toExtraction(), nil
}

func (o *ChatOracle) userPrompt(message string, known domain.ComplaintRecord) string {
	var b strings.Builder
	if ctxJSON, err := json.Marshal(known); err == nil && string(ctxJSON) != "{}" {
		b.WriteString("Known context:\n")
		b.Write(ctxJSON)
		b.WriteString("\n\n")
	}
	b.WriteString("Current message:\n")
	b.WriteString(message)
	return b.String()
}

func (p extractionPayload) toExtraction() Extraction {
	return Extraction{
		Fields: domain.ComplaintRecord{
			PassengerName:    strings.TrimSpace(p.PassengerName),
			Email:            strings.TrimSpace(p.PassengerEmail),
			Phone:            strings.TrimSpace(p.PassengerPhone),
			FlightNumber:     strings.ToUpper(strings.TrimSpace(p.FlightNumber)),
			BookingReference: strings.ToUpper(strings.TrimSpace(p.BookingReference)),
			Description:      strings.TrimSpace(p.Description),
			Category:         normalizeCategory(p.Category),
			Sentiment:        normalizeSentiment(p.Sentiment),
			UrgencyMarkers:   p.UrgencyMarkers,
			DelayHours:       p.DelayHours,
			RefundAmount:     p.RefundAmount,
			RepeatIssue:      p.RepeatIssue,
			BaggageLost:      p.BaggageLost,
		},
		Classification: Classification{
			IsComplaint: p.IsComplaint,
			Confidence:  p.Confidence,
		},
	}
}

func normalizeCategory(val string) domain.Category {
	switch domain.Category(strings.ToUpper(strings.TrimSpace(val))) {
	case domain.CategoryDelay:
		return domain.CategoryDelay
	case domain.CategoryBaggage:
		return domain.CategoryBaggage
	case domain.CategoryRefund:
		return domain.CategoryRefund
	case domain.CategoryService:
		return domain.CategoryService
	case domain.CategoryFeedback:
		return domain.CategoryFeedback
	case domain.CategoryOther:
		return domain.CategoryOther
	default:
		return ""
	}
}

func normalizeSentiment(val string) domain.Sentiment {
	switch domain.Sentiment(strings.ToUpper(strings.TrimSpace(val))) {
	case domain.SentimentPositive:
		return domain.SentimentPositive
	case domain.SentimentNeutral:
		return domain.SentimentNeutral
	case domain.SentimentNegative:
		return domain.SentimentNegative
	case domain.SentimentVeryNegative:
		return domain.SentimentVeryNegative
	default:
		return ""
	}
}
