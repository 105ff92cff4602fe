package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-intake/internal/domain"
	"github.com/spec-kit/complaint-intake/internal/events"
	"github.com/spec-kit/complaint-intake/internal/observability"
	"github.com/spec-kit/complaint-intake/internal/oracle"
	"github.com/spec-kit/complaint-intake/internal/repository"
	apperrors "github.com/spec-kit/complaint-intake/pkg/util"
)

// IntakeService is the complaint-intake decision core. For every message
// it merges the oracle's extraction into the thread's accumulated record,
// decides exactly one action (create / update / request-info) and applies
// it, serialized per thread.
type IntakeService struct {
	oracle        oracle.Oracle
	threads       repository.ThreadRepository
	conversations repository.ConversationRepository
	policy        *TriagePolicy
	executor      *ActionExecutor
	dispatcher    events.Dispatcher
	metrics       *observability.Metrics
	logger        *zap.Logger
	locks         *threadLocks
	maxRetries    uint64
}

// IntakeDependencies bundles collaborators for the intake service.
type IntakeDependencies struct {
	Oracle           oracle.Oracle
	TicketRepo       repository.TicketRepository
	ThreadRepo       repository.ThreadRepository
	ConversationRepo repository.ConversationRepository
	Policy           *TriagePolicy
	Dispatcher       events.Dispatcher
	Metrics          *observability.Metrics
	Logger           *zap.Logger
	MaxRetries       uint64
}

// NewIntakeService constructs the service.
func NewIntakeService(deps IntakeDependencies) *IntakeService {
	return &IntakeService{
		oracle:        deps.Oracle,
		threads:       deps.ThreadRepo,
		conversations: deps.ConversationRepo,
		policy:        deps.Policy,
		executor:      NewActionExecutor(deps.TicketRepo, deps.ThreadRepo, deps.Logger, deps.MaxRetries),
		dispatcher:    deps.Dispatcher,
		metrics:       deps.Metrics,
		logger:        deps.Logger,
		locks:         newThreadLocks(),
		maxRetries:    deps.MaxRetries,
	}
}

// IntakeResult is the outbound response shape for one processed message.
type IntakeResult struct {
	ThreadID      string
	ActionTaken   domain.ActionType
	TicketID      string
	Priority      domain.TicketPriority
	SLADeadline   *time.Time
	MissingFields []string
	Message       string
}

// ProcessMessage runs the full intake flow for one message. The oracle
// call happens outside the per-thread critical section; only the
// merge-decide-write sequence holds the lock.
func (s *IntakeService) ProcessMessage(ctx context.Context, threadID, message string) (*IntakeResult, error) {
	threadID = strings.TrimSpace(threadID)
	message = strings.TrimSpace(message)
	if threadID == "" {
		return nil, apperrors.NewValidationError("thread_id required", nil)
	}
	if message == "" {
		return nil, apperrors.NewValidationError("message required", nil)
	}

	// Context snapshot for the oracle only; the authoritative read
	// happens again under the lock.
	var known domain.ComplaintRecord
	if state, err := s.threads.Get(ctx, threadID); err == nil {
		known = state.Record
	}
	extraction := s.extract(ctx, message, known)

	release := s.locks.acquire(threadID)
	defer release()

	state, err := s.loadOrInitState(ctx, threadID)
	if err != nil {
		return nil, err
	}

	// A verbatim repeat of the previous message on a ticketed thread
	// carries no new data; skip the merge so it lands on the empty-delta
	// acknowledgment path.
	if state.HasTicket() && s.isRepeatMessage(ctx, threadID, message) {
		extraction = oracle.Extraction{}
	}

	deltas := state.Record.Merge(extraction.Fields)
	action := s.decide(state, deltas)

	result, err := s.executor.Execute(ctx, action, state)
	if err != nil {
		return nil, err
	}

	s.recordConversation(ctx, threadID, message, result.Message)
	s.publishEvent(ctx, result, threadID)
	s.metrics.RecordAction(string(result.ActionTaken))

	return &IntakeResult{
		ThreadID:      threadID,
		ActionTaken:   result.ActionTaken,
		TicketID:      result.TicketID,
		Priority:      result.Priority,
		SLADeadline:   result.SLADeadline,
		MissingFields: result.MissingFields,
		Message:       result.Message,
	}, nil
}

// decide emits exactly one action for the merged state: an already-linked
// ticket always routes to update (duplicate prevention is thread-scoped);
// otherwise creation requires the full required field set.
func (s *IntakeService) decide(state *domain.ThreadState, deltas []domain.FieldDelta) domain.Action {
	action := domain.Action{
		ID:       uuid.NewString(),
		ThreadID: state.ThreadID,
		Record:   state.Record,
		Deltas:   deltas,
	}

	if state.HasTicket() {
		action.Type = domain.ActionUpdateTicket
		action.TicketID = state.TicketID
		return action
	}

	if missing := state.Record.MissingFields(); len(missing) > 0 {
		action.Type = domain.ActionRequestInfo
		action.MissingFields = missing
		return action
	}

	triage := s.policy.Evaluate(state.Record)
	action.Type = domain.ActionCreateTicket
	action.Priority = triage.Priority
	action.SLAHours = triage.SLAHours
	action.AssignedTeam = triage.AssignedTeam
	return action
}

// extract calls the oracle with bounded retries. Unavailability degrades
// to an empty extraction: the worst case for the caller is a repeated
// request for the still-missing fields, never a failed request.
func (s *IntakeService) extract(ctx context.Context, message string, known domain.ComplaintRecord) oracle.Extraction {
	var extraction oracle.Extraction
	err := retryBounded(ctx, s.maxRetries, func() error {
		var err error
		extraction, err = s.oracle.Extract(ctx, message, known)
		return err
	})
	if err != nil {
		s.logger.Warn("extraction oracle unavailable, proceeding with empty extraction", zap.Error(err))
		return oracle.Extraction{}
	}
	return extraction
}

func (s *IntakeService) loadOrInitState(ctx context.Context, threadID string) (*domain.ThreadState, error) {
	var state *domain.ThreadState
	err := retryBounded(ctx, s.maxRetries, func() error {
		loaded, err := s.threads.Get(ctx, threadID)
		if errors.Is(err, repository.ErrNotFound) {
			state = &domain.ThreadState{ThreadID: threadID}
			return nil
		}
		if err != nil {
			return err
		}
		state = loaded
		return nil
	})
	if err != nil {
		return nil, apperrors.NewDependencyUnavailable("thread store", err)
	}
	return state, nil
}

func (s *IntakeService) isRepeatMessage(ctx context.Context, threadID, message string) bool {
	turns, err := s.conversations.Recent(ctx, threadID, 10)
	if err != nil {
		return false
	}
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == "user" {
			return strings.EqualFold(strings.TrimSpace(turns[i].Content), message)
		}
	}
	return false
}

func (s *IntakeService) recordConversation(ctx context.Context, threadID, userMessage, reply string) {
	err := s.conversations.Append(ctx, threadID,
		repository.ConversationTurn{Role: "user", Content: userMessage},
		repository.ConversationTurn{Role: "assistant", Content: reply},
	)
	if err != nil {
		s.logger.Warn("conversation append failed", zap.String("thread_id", threadID), zap.Error(err))
	}
}

func (s *IntakeService) publishEvent(ctx context.Context, result *ExecutionResult, threadID string) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		ThreadID:  threadID,
		TicketID:  result.TicketID,
		Timestamp: time.Now(),
	}
	switch result.ActionTaken {
	case domain.ActionCreateTicket:
		event.Type = events.EventTicketCreated
		var deadline time.Time
		if result.SLADeadline != nil {
			deadline = *result.SLADeadline
		}
		event.Payload = events.TicketCreatedPayload{
			Priority:     result.Priority,
			Category:     result.Category,
			SLADeadline:  deadline,
			AssignedTeam: result.AssignedTeam,
		}
	case domain.ActionUpdateTicket:
		event.Type = events.EventTicketUpdated
		event.Payload = events.TicketUpdatedPayload{
			UpdatedFields: result.UpdatedFields,
			Empty:         len(result.UpdatedFields) == 0,
		}
	case domain.ActionRequestInfo:
		event.Type = events.EventInformationRequested
		event.Payload = events.InformationRequestedPayload{MissingFields: result.MissingFields}
	default:
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}
