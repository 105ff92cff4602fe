package oracle_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-intake/internal/config"
	"github.com/spec-kit/complaint-intake/internal/domain"
	"github.com/spec-kit/complaint-intake/internal/oracle"
)

func chatServer(t *testing.T, handler http.HandlerFunc) *oracle.ChatOracle {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return oracle.NewChatOracle(config.OracleConfig{
		BaseURL:        srv.URL,
		APIKey:         "test-key",
		Model:          "test-model",
		TimeoutSeconds: 5,
	}, zap.NewNop())
}

func completionResponse(content string) string {
	body := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
	data, _ := json.Marshal(body)
	return string(data)
}

func TestChatOracleMapsModelOutput(t *testing.T) {
	o := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req["model"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionResponse(`{
			"passenger_name": "John Smith",
			"passenger_email": "john@example.com",
			"flight_number": "aa447",
			"incident_description": "delayed 5 hours",
			"category": "delay",
			"sentiment": "negative",
			"delay_hours": 5,
			"is_complaint": true,
			"confidence": 0.95
		}`)))
	})

	extraction, err := o.Extract(context.Background(), "my flight was delayed", domain.ComplaintRecord{})
	require.NoError(t, err)

	fields := extraction.Fields
	assert.Equal(t, "John Smith", fields.PassengerName)
	assert.Equal(t, "AA447", fields.FlightNumber)
	assert.Equal(t, domain.CategoryDelay, fields.Category)
	assert.Equal(t, domain.SentimentNegative, fields.Sentiment)
	assert.Equal(t, 5, fields.DelayHours)
	assert.True(t, extraction.Classification.IsComplaint)
}

func TestChatOracleServerErrorIsUnavailable(t *testing.T) {
	o := chatServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := o.Extract(context.Background(), "anything", domain.ComplaintRecord{})
	assert.ErrorIs(t, err, oracle.ErrUnavailable)
}

func TestChatOracleGarbledOutputDegradesToEmpty(t *testing.T) {
	o := chatServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionResponse("this is not json")))
	})

	extraction, err := o.Extract(context.Background(), "anything", domain.ComplaintRecord{})
	require.NoError(t, err)
	assert.True(t, extraction.Empty())
}

func TestChatOracleUnknownEnumsDropToUnset(t *testing.T) {
	o := chatServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionResponse(`{"category": "WEATHER", "sentiment": "ANGRY", "passenger_name": "X"}`)))
	})

	extraction, err := o.Extract(context.Background(), "anything", domain.ComplaintRecord{})
	require.NoError(t, err)
	assert.Empty(t, extraction.Fields.Category)
	assert.Empty(t, extraction.Fields.Sentiment)
	assert.Equal(t, "X", extraction.Fields.PassengerName)
}
