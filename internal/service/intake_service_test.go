package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-intake/internal/config"
	"github.com/spec-kit/complaint-intake/internal/domain"
	"github.com/spec-kit/complaint-intake/internal/events"
	"github.com/spec-kit/complaint-intake/internal/observability"
	"github.com/spec-kit/complaint-intake/internal/oracle"
	"github.com/spec-kit/complaint-intake/internal/repository"
	"github.com/spec-kit/complaint-intake/internal/service"
)

type intakeFixture struct {
	intake  *service.IntakeService
	tickets repository.TicketRepository
	threads repository.ThreadRepository
}

func newIntakeFixture(t *testing.T) *intakeFixture {
	t.Helper()
	tickets := repository.NewMemoryTicketRepository()
	threads := repository.NewMemoryThreadRepository()
	intake := service.NewIntakeService(service.IntakeDependencies{
		Oracle:           oracle.NewRuleOracle(),
		TicketRepo:       tickets,
		ThreadRepo:       threads,
		ConversationRepo: repository.NewMemoryConversationRepository(),
		Policy:           service.NewTriagePolicy(config.TriageConfig{}),
		Dispatcher:       events.NewInMemoryDispatcher(),
		Metrics:          observability.NewMetrics(),
		Logger:           zap.NewNop(),
		MaxRetries:       1,
	})
	return &intakeFixture{intake: intake, tickets: tickets, threads: threads}
}

func TestCompleteComplaintCreatesTicketImmediately(t *testing.T) {
	f := newIntakeFixture(t)

	result, err := f.intake.ProcessMessage(context.Background(), "thread_1",
		"My name is John Smith, my email is john.smith@example.com and my phone number is 555-0123. "+
			"My flight AA447 was delayed by 5 hours and I missed my connection.")
	require.NoError(t, err)

	assert.Equal(t, domain.ActionCreateTicket, result.ActionTaken)
	assert.NotEmpty(t, result.TicketID)
	assert.Equal(t, domain.TicketPriorityHigh, result.Priority)
	require.NotNil(t, result.SLADeadline)
	assert.Empty(t, result.MissingFields)

	ticket, err := f.tickets.GetByThread(context.Background(), "thread_1")
	require.NoError(t, err)
	assert.Equal(t, "John Smith", ticket.Record.PassengerName)
	assert.Equal(t, "john.smith@example.com", ticket.Record.Email)
	assert.Equal(t, "AA447", ticket.Record.FlightNumber)
	assert.Equal(t, domain.CategoryDelay, ticket.Record.Category)
	assert.Equal(t, 5, ticket.Record.DelayHours)
	assert.Equal(t, "Priority Support", ticket.AssignedTeam)
}

func TestIncrementalAccumulationAcrossMessages(t *testing.T) {
	f := newIntakeFixture(t)
	ctx := context.Background()

	first, err := f.intake.ProcessMessage(ctx, "thread_2",
		"My luggage was lost on flight BA789 yesterday. This is a complaint.")
	require.NoError(t, err)
	assert.Equal(t, domain.ActionRequestInfo, first.ActionTaken)
	assert.Equal(t, []string{domain.MissingName, domain.MissingContact}, first.MissingFields)
	assert.Empty(t, first.TicketID)

	// No ticket yet; accumulated state is persisted on the thread.
	state, err := f.threads.Get(ctx, "thread_2")
	require.NoError(t, err)
	assert.Equal(t, "BA789", state.Record.FlightNumber)
	assert.Equal(t, domain.CategoryBaggage, state.Record.Category)
	assert.True(t, state.Record.BaggageLost)

	second, err := f.intake.ProcessMessage(ctx, "thread_2",
		"I'm Sarah Johnson, you can reach me at sarah.j@gmail.com")
	require.NoError(t, err)
	assert.Equal(t, domain.ActionCreateTicket, second.ActionTaken)
	assert.Equal(t, domain.TicketPriorityHigh, second.Priority)

	ticket, err := f.tickets.GetByThread(ctx, "thread_2")
	require.NoError(t, err)
	assert.Equal(t, "Sarah Johnson", ticket.Record.PassengerName)
	assert.Equal(t, "sarah.j@gmail.com", ticket.Record.Email)
	assert.Equal(t, "BA789", ticket.Record.FlightNumber)
}

func TestUrgencyMarkersEscalateToCritical(t *testing.T) {
	f := newIntakeFixture(t)

	result, err := f.intake.ProcessMessage(context.Background(), "thread_3",
		"My name is Maria Garcia and my email is maria.garcia@example.com. I was on flight UA100. "+
			"My baby needs medical attention and we are stuck at the airport. This is a complaint.")
	require.NoError(t, err)

	assert.Equal(t, domain.ActionCreateTicket, result.ActionTaken)
	assert.Equal(t, domain.TicketPriorityCritical, result.Priority)

	ticket, err := f.tickets.GetByThread(context.Background(), "thread_3")
	require.NoError(t, err)
	assert.Equal(t, "Emergency Response", ticket.AssignedTeam)
	assert.True(t, ticket.Record.HasMarker(domain.MarkerMedical))
	assert.True(t, ticket.Record.HasMarker(domain.MarkerInfant))
	assert.True(t, ticket.Record.HasMarker(domain.MarkerStuckAtAirport))
}

func TestAtMostOneTicketPerThread(t *testing.T) {
	f := newIntakeFixture(t)
	ctx := context.Background()

	first, err := f.intake.ProcessMessage(ctx, "thread_4",
		"My name is John Smith, email john.smith@example.com, flight AA447 was delayed by 5 hours. This is a complaint.")
	require.NoError(t, err)
	require.Equal(t, domain.ActionCreateTicket, first.ActionTaken)

	// A complete follow-up still updates the existing ticket.
	second, err := f.intake.ProcessMessage(ctx, "thread_4",
		"The delay was actually 6 hours and I want compensation. This is still a problem.")
	require.NoError(t, err)
	assert.Equal(t, domain.ActionUpdateTicket, second.ActionTaken)
	assert.Equal(t, first.TicketID, second.TicketID)

	all, err := f.tickets.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	history, err := f.tickets.ListHistory(ctx, first.TicketID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestRepeatedMessageYieldsEmptyDeltaUpdate(t *testing.T) {
	f := newIntakeFixture(t)
	ctx := context.Background()
	message := "My name is John Smith, email john.smith@example.com, flight AA447 was delayed by 5 hours. This is a complaint."

	first, err := f.intake.ProcessMessage(ctx, "thread_5", message)
	require.NoError(t, err)
	require.Equal(t, domain.ActionCreateTicket, first.ActionTaken)

	second, err := f.intake.ProcessMessage(ctx, "thread_5", message)
	require.NoError(t, err)
	assert.Equal(t, domain.ActionUpdateTicket, second.ActionTaken)
	assert.Contains(t, second.Message, "already being processed")

	ticket, err := f.tickets.GetByThread(ctx, "thread_5")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
}

func TestValidationRejectsEmptyInput(t *testing.T) {
	f := newIntakeFixture(t)
	ctx := context.Background()

	_, err := f.intake.ProcessMessage(ctx, "", "hello")
	assert.Error(t, err)

	_, err = f.intake.ProcessMessage(ctx, "thread_6", "   ")
	assert.Error(t, err)

	// Rejected inputs must not create thread state.
	_, err = f.threads.Get(ctx, "thread_6")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestOracleFailureDegradesToInformationRequest(t *testing.T) {
	tickets := repository.NewMemoryTicketRepository()
	threads := repository.NewMemoryThreadRepository()
	intake := service.NewIntakeService(service.IntakeDependencies{
		Oracle:           failingOracle{},
		TicketRepo:       tickets,
		ThreadRepo:       threads,
		ConversationRepo: repository.NewMemoryConversationRepository(),
		Policy:           service.NewTriagePolicy(config.TriageConfig{}),
		Dispatcher:       events.NewInMemoryDispatcher(),
		Metrics:          observability.NewMetrics(),
		Logger:           zap.NewNop(),
		MaxRetries:       1,
	})

	result, err := intake.ProcessMessage(context.Background(), "thread_7",
		"My name is John Smith and my bag is lost.")
	require.NoError(t, err)
	assert.Equal(t, domain.ActionRequestInfo, result.ActionTaken)
	assert.Equal(t, []string{
		domain.MissingName,
		domain.MissingContact,
		domain.MissingFlightRef,
		domain.MissingDescription,
	}, result.MissingFields)
}

type failingOracle struct{}

func (failingOracle) Extract(context.Context, string, domain.ComplaintRecord) (oracle.Extraction, error) {
	return oracle.Extraction{}, oracle.ErrUnavailable
}
