package service

import (
	"context"
	"strings"

	"github.com/Aashish23092/tax-advisor/dto"
	"github.com/rs/zerolog/log"
)

// DoneKeywords mark an advisor message as the end of the current filing.
var DoneKeywords = []string{
	"all done",
	"summary",
	"refund",
	"no further questions",
	"file for another year",
	"eligible for a full refund",
}

// AdvisorService binds sessions to the dialogue engine. It does not lock;
// callers serialize access to a single session.
type AdvisorService struct {
	store  *SessionStore
	engine *DialogueEngine
}

func NewAdvisorService(store *SessionStore, engine *DialogueEngine) *AdvisorService {
	return &AdvisorService{
		store:  store,
		engine: engine,
	}
}

func (s *AdvisorService) StartSession() string {
	id, _ := s.store.Create()
	log.Info().Str("session_id", id).Msg("advisor session started")
	return id
}

func (s *AdvisorService) EndSession(id string) error {
	if err := s.store.Delete(id); err != nil {
		return err
	}
	log.Info().Str("session_id", id).Msg("advisor session ended")
	return nil
}

func (s *AdvisorService) HasSession(id string) bool {
	_, err := s.store.Get(id)
	return err == nil
}

// IngestRecord makes record the subject of the session. The conversation
// starts over while the set of filed years carries across documents.
func (s *AdvisorService) IngestRecord(id string, record dto.TaxDocumentRecord) error {
	st, err := s.store.Get(id)
	if err != nil {
		return err
	}

	st.Record = record
	st.History = []dto.Turn{}
	if year, ok := record.Year(); ok {
		st.FiledYears[year] = struct{}{}
	}
	s.store.Save(id, st)

	log.Info().
		Str("session_id", id).
		Str("employer", record.Employer).
		Ints("filed_years", SortedYears(st.FiledYears)).
		Msg("document ingested into session")
	return nil
}

// AdvisorTurn records the optional user message and produces the next
// advisor message.
func (s *AdvisorService) AdvisorTurn(ctx context.Context, id string, userMessage *string) (dto.AdvisorReply, error) {
	st, err := s.store.Get(id)
	if err != nil {
		return dto.AdvisorReply{}, err
	}

	if userMessage != nil {
		if text := strings.TrimSpace(*userMessage); text != "" {
			st.History = append(st.History, dto.Turn{Role: dto.RoleUser, Text: text})
		}
	}

	state, message := s.engine.Step(ctx, st)
	s.store.Save(id, st)

	log.Debug().
		Str("session_id", id).
		Str("state", state.String()).
		Int("history", len(st.History)).
		Msg("advisor turn")

	return dto.AdvisorReply{
		Message:    message,
		Done:       IsDone(message),
		FilledForm: FillForm(st.Record, st.History),
	}, nil
}

// Questions returns the missing-field questions for the session's record.
func (s *AdvisorService) Questions(id string) ([]string, error) {
	st, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	return MissingFieldQuestions(st.Record), nil
}

// IsDone scans message for any of DoneKeywords, ignoring case.
func IsDone(message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range DoneKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// FillForm merges the record with the user's answers in the order given.
func FillForm(record dto.TaxDocumentRecord, history []dto.Turn) dto.FilledForm {
	answers := make([]string, 0, len(history))
	for _, turn := range history {
		if turn.Role == dto.RoleUser {
			answers = append(answers, turn.Text)
		}
	}
	return dto.FilledForm{Record: record, Answers: answers}
}
