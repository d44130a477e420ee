package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Aashish23092/tax-advisor/dto"
	"github.com/rs/zerolog/log"
)

// DialogueState is derived from a session's record and history on every turn;
// it is never stored.
type DialogueState int

const (
	StateNew DialogueState = iota
	StateSummarized
	StateQuestioning
	StateEarlyExit
)

func (s DialogueState) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateSummarized:
		return "summarized"
	case StateQuestioning:
		return "questioning"
	case StateEarlyExit:
		return "early_exit"
	default:
		return "unknown(" + strconv.Itoa(int(s)) + ")"
	}
}

// NoResponseMessage is returned when the oracle cannot produce a question.
const NoResponseMessage = "[No response from advisor]"

const summaryHeading = "Here's what I found in your"

const advisorInstruction = `You are a professional German tax return advisor helping a user file their tax return.
Ask only ONE question at a time. Be short and professional.
Ask follow-up questions based only on what has already been answered.
Your goal is to:
- Confirm the filing year
- Confirm professional status (student, graduate, employee)
- Ask relevant questions to find possible deductions (university fees, insurance, relocation, etc.)
- Stop asking questions and generate a summary if income is below the threshold.
- After filing is done, ask if the user wants to file for another year.
- The user has already filed for these years: %s.
If the user has not filed for the previous year or the next year, suggest filing for those years as well.`

// DialogueEngine drives the advisory conversation of one session at a time.
type DialogueEngine struct {
	oracle    Oracle
	threshold *ThresholdEvaluator
}

func NewDialogueEngine(oracle Oracle, threshold *ThresholdEvaluator) *DialogueEngine {
	if threshold == nil {
		threshold = NewThresholdEvaluator(nil)
	}
	return &DialogueEngine{
		oracle:    oracle,
		threshold: threshold,
	}
}

// DeriveState infers where the conversation stands. The threshold check comes
// first so an eligible filer exits early at any point.
func (e *DialogueEngine) DeriveState(record dto.TaxDocumentRecord, history []dto.Turn) DialogueState {
	if e.threshold.IsBelowThreshold(record) {
		return StateEarlyExit
	}
	idx := summaryIndex(history)
	if idx < 0 {
		return StateNew
	}
	for _, turn := range history[idx+1:] {
		if turn.Role == dto.RoleAssistant {
			return StateQuestioning
		}
	}
	return StateSummarized
}

// Transition runs one engine step and returns the next state, the message to
// show and the resulting history. The input history is never modified.
func (e *DialogueEngine) Transition(ctx context.Context, state DialogueState, record dto.TaxDocumentRecord, history []dto.Turn, filedYears []int) (DialogueState, string, []dto.Turn) {
	switch state {
	case StateEarlyExit:
		msg := e.threshold.RefundStatement(record)
		return StateEarlyExit, msg, appendTurn(history, dto.Turn{Role: dto.RoleAssistant, Text: msg})

	case StateNew:
		summary := BuildSummary(record)
		next := make([]dto.Turn, 0, len(history)+1)
		next = append(next, dto.Turn{Role: dto.RoleAssistant, Text: summary})
		next = append(next, history...)
		return StateSummarized, summary, next

	case StateSummarized, StateQuestioning:
		reply, err := e.ask(ctx, history, filedYears)
		if err != nil {
			log.Warn().Err(err).Str("state", state.String()).Msg("advisor question failed")
			return state, NoResponseMessage, history
		}
		return StateQuestioning, reply, appendTurn(history, dto.Turn{Role: dto.RoleAssistant, Text: reply})
	}

	log.Error().Str("state", state.String()).Msg("unknown dialogue state")
	return state, NoResponseMessage, history
}

// Step derives the state of st, applies one transition and stores the new
// history back into st.
func (e *DialogueEngine) Step(ctx context.Context, st *dto.ConversationState) (DialogueState, string) {
	state := e.DeriveState(st.Record, st.History)
	next, msg, history := e.Transition(ctx, state, st.Record, st.History, SortedYears(st.FiledYears))
	st.History = history
	log.Debug().Str("from", state.String()).Str("to", next.String()).Msg("dialogue transition")
	return next, msg
}

func (e *DialogueEngine) ask(ctx context.Context, history []dto.Turn, filedYears []int) (string, error) {
	if e.oracle == nil {
		return "", dto.ErrOracleUnavailable
	}

	turns := make([]dto.Turn, 0, len(history)+1)
	turns = append(turns, dto.Turn{Role: dto.RoleSystem, Text: SystemInstruction(filedYears)})
	turns = append(turns, history...)

	reply, err := e.oracle.ChatComplete(ctx, turns)
	if err != nil {
		return "", err
	}
	if reply = strings.TrimSpace(reply); reply == "" {
		return "", fmt.Errorf("%w: empty reply", dto.ErrMalformedOracleResponse)
	}
	return reply, nil
}

// SystemInstruction renders the advisor instruction with the years already filed.
func SystemInstruction(filedYears []int) string {
	years := "none"
	if len(filedYears) > 0 {
		parts := make([]string, len(filedYears))
		for i, y := range filedYears {
			parts[i] = strconv.Itoa(y)
		}
		years = strings.Join(parts, ", ")
	}
	return fmt.Sprintf(advisorInstruction, years)
}

// BuildSummary renders the record for the first advisor message.
func BuildSummary(record dto.TaxDocumentRecord) string {
	year := "unknown"
	if y, ok := record.Year(); ok {
		year = strconv.Itoa(y)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s tax documents:\n\n", summaryHeading, year)
	fmt.Fprintf(&b, "👤 **Name:** %s\n", orDefault(record.FullName, identityOrNA(record.IdentityLabel)))
	fmt.Fprintf(&b, "🏠 **Address:** %s\n", orDefault(record.Address, "N/A"))
	fmt.Fprintf(&b, "🏢 **Employer:** %s\n", orDefault(record.Employer, dto.DefaultEmployer))
	fmt.Fprintf(&b, "⏱️ **Hours Worked:** %s\n", orDefault(record.TotalHours, "not specified"))
	fmt.Fprintf(&b, "💶 **Gross Income:** €%s\n", FormatEuro(record.GrossIncome))
	fmt.Fprintf(&b, "💰 **Income Tax Paid:** €%s\n\n", FormatEuro(record.IncomeTaxPaid))
	b.WriteString("Let's begin with a few quick questions to see what deductions you might qualify for.")
	return b.String()
}

// SortedYears returns the distinct filed years in ascending order.
func SortedYears(years map[int]struct{}) []int {
	out := make([]int, 0, len(years))
	for y := range years {
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}

func summaryIndex(history []dto.Turn) int {
	for i, turn := range history {
		if turn.Role == dto.RoleAssistant && strings.HasPrefix(turn.Text, summaryHeading) {
			return i
		}
	}
	return -1
}

func appendTurn(history []dto.Turn, turn dto.Turn) []dto.Turn {
	next := make([]dto.Turn, len(history), len(history)+1)
	copy(next, history)
	return append(next, turn)
}

func identityOrNA(label string) string {
	if label == "" || label == dto.DefaultIdentityLabel {
		return "N/A"
	}
	return label
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
