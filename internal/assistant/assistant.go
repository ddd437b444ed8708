// Package assistant answers natural-language questions about a user's
// spending using their stored receipts as context.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/zombor/expense-tracker/internal/record"
)

// Canned answers
const (
	UnavailableAnswer = "I'm sorry, I can't analyze your expenses right now. The AI service is unavailable."
	ErrorAnswer       = "Sorry, I encountered an error while processing your question."
	NoCategoryAnswer  = "I couldn't determine the expense category from your question. Please specify the category (e.g., food, medicine, transport, entertainment, shopping, utilities, etc.) or rephrase your question to be more specific."
	GreetingAnswer    = "Hello! I can help you understand your spending. Ask me things like how much you spent on food this month or which vendor you spent most at."
)

// Model generates a text completion for a prompt
type Model interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type defaultTimeSource struct{}

func (defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Assistant answers spending questions. A nil model still resolves
// greetings, missing categories and empty data, and answers everything
// else with UnavailableAnswer.
type Assistant struct {
	model      Model
	timeSource TimeSource
	timeout    time.Duration
}

// New creates an Assistant backed by model
func New(model Model) *Assistant {
	return NewWithDeps(model, defaultTimeSource{}, 30*time.Second)
}

// NewWithDeps creates an Assistant with custom dependencies for testing
func NewWithDeps(model Model, timeSrc TimeSource, timeout time.Duration) *Assistant {
	return &Assistant{
		model:      model,
		timeSource: timeSrc,
		timeout:    timeout,
	}
}

// Answer answers question over receipts. Model failures are reported in
// the answer text; only a cancelled context is returned as an error.
func (a *Assistant) Answer(ctx context.Context, question string, receipts []*record.StoredReceipt) (*record.ChatAnswer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question is required")
	}

	if IsGreeting(question) {
		return &record.ChatAnswer{
			Answer:           GreetingAnswer,
			ExtractedDetails: &record.ChatDetails{Confidence: "high", IsCasualGreeting: true},
			Suggestions: []string{
				"How much did I spend on food this month?",
				"Show me my expenses for June",
				"What were my biggest expenses last month?",
				"Compare my spending across categories",
			},
		}, nil
	}

	details := a.details(ctx, question)
	slog.Info("Extracted question details",
		"category", details.Category,
		"month", details.Month,
		"general", details.IsGeneralQuestion,
		"confidence", details.Confidence,
	)

	if details.Category == "" && !details.IsGeneralQuestion {
		return &record.ChatAnswer{
			Answer:           NoCategoryAnswer,
			ExtractedDetails: &details,
			Suggestions: []string{
				"Try: 'How much did I spend on food in June?'",
				"Try: 'Show me my medicine expenses this month'",
				"Try: 'What were my transport costs last month?'",
			},
		}, nil
	}

	if details.Month == "" && !details.IsGeneralQuestion {
		details.Month = a.timeSource.Now().Format(monthLayout)
	}
	if details.IsGeneralQuestion {
		details.Category = "all"
	}

	summary := Summarize(receipts, Scope{
		Category: details.Category,
		Month:    details.Month,
		General:  details.IsGeneralQuestion,
	})
	if strings.TrimSpace(summary) == "" {
		return noData(details), nil
	}

	answer, err := a.ask(ctx, question, summary)
	if err != nil {
		return nil, err
	}
	return &record.ChatAnswer{
		Answer:           answer,
		ExtractedDetails: &details,
		Suggestions:      suggestions(details),
	}, nil
}

// details runs the keyword rules and, when they find neither a category nor
// a general question, asks the model
func (a *Assistant) details(ctx context.Context, question string) record.ChatDetails {
	details := ExtractDetails(question, a.timeSource.Now())
	if details.Category != "" || details.IsGeneralQuestion || a.model == nil {
		return details
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	text, err := a.model.Generate(ctx, fmt.Sprintf(extractPrompt, question))
	if err != nil {
		slog.Warn("Failed to extract question details", "error", err)
		return details
	}

	var extracted struct {
		Category          *string `json:"category"`
		Month             *string `json:"month"`
		Confidence        string  `json:"confidence"`
		IsGeneralQuestion bool    `json:"is_general_question"`
	}
	if err := json.Unmarshal([]byte(jsonObject(text)), &extracted); err != nil {
		slog.Warn("Failed to parse question details", "response", text, "error", err)
		return details
	}

	if extracted.Category != nil {
		details.Category = strings.ToLower(strings.TrimSpace(*extracted.Category))
	}
	if extracted.Month != nil && details.Month == "" {
		switch m := strings.TrimSpace(*extracted.Month); {
		case m == "current":
			details.Month = a.timeSource.Now().Format(monthLayout)
		case validMonth(m):
			details.Month = m
		}
	}
	details.IsGeneralQuestion = extracted.IsGeneralQuestion && details.Category == ""
	if extracted.Confidence != "" {
		details.Confidence = extracted.Confidence
	}
	return details
}

func (a *Assistant) ask(ctx context.Context, question, summary string) (string, error) {
	if a.model == nil {
		return UnavailableAnswer, nil
	}

	askCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	answer, err := a.model.Generate(askCtx, fmt.Sprintf(answerPrompt, question, summary))
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		slog.Error("Failed to answer question", "error", err)
		return ErrorAnswer, nil
	}
	return strings.TrimSpace(answer), nil
}

func noData(details record.ChatDetails) *record.ChatAnswer {
	if details.IsGeneralQuestion {
		in := ""
		if details.Month != "" {
			in = " in " + details.Month
		}
		return &record.ChatAnswer{
			Answer:           fmt.Sprintf("No expense data found%s. You may want to check if you have any expenses recorded for that period.", in),
			ExtractedDetails: &details,
			Suggestions: []string{
				"Try adding some receipts first",
				"Check if your expense data is properly recorded",
				"Try asking about a specific category like food or transport",
			},
		}
	}
	return &record.ChatAnswer{
		Answer: fmt.Sprintf("No expense data found for category '%s' in %s. You may want to check if you have any expenses recorded for that period, or try asking about a different category or time period.",
			details.Category, details.Month),
		ExtractedDetails: &details,
		Suggestions: []string{
			fmt.Sprintf("Try asking about different months for %s", details.Category),
			"Try asking about other categories like food, transport, or entertainment",
			"Check if your expense data is properly recorded",
		},
	}
}

func suggestions(details record.ChatDetails) []string {
	if details.IsGeneralQuestion {
		return []string{
			"Which category did I spend most on?",
			"How has my spending changed over time?",
			"What was my biggest expense last month?",
			"Compare my spending this month to last month",
		}
	}
	return []string{
		fmt.Sprintf("What was my biggest %s expense in %s?", details.Category, details.Month),
		fmt.Sprintf("How much did I spend on %s compared to last month?", details.Category),
		fmt.Sprintf("Show me a breakdown of my %s expenses", details.Category),
		"Which vendor did I spend most at?",
	}
}

func validMonth(m string) bool {
	_, err := time.Parse(monthLayout, m)
	return err == nil
}

// jsonObject trims code fences and prose around the first JSON object
func jsonObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end < start {
		return text
	}
	return text[start : end+1]
}

const extractPrompt = `Extract the expense category and month (if any) from this question about personal expenses.
Question: %q

Return ONLY a JSON object with these keys:
- category: the expense category (food, transport, healthcare, utilities, entertainment, shopping, etc.) or null
- month: in YYYY-MM format, "current" for the current month, or null if not mentioned
- confidence: "high", "medium" or "low"
- is_general_question: true when the question is about all expenses rather than one category`

const answerPrompt = `Answer this question about expenses based ONLY on the data provided below.
If you don't have enough information, say so clearly.

Question: %q

Receipt data:
%s

Provide a helpful, concise answer focusing only on the expense data provided.`
