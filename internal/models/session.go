package models

import "github.com/google/uuid"

// OptionState drives the visual feedback of a single option.
type OptionState string

const (
	OptionUnanswered         OptionState = "unanswered"
	OptionSelectedCorrect    OptionState = "selected-correct"
	OptionSelectedIncorrect  OptionState = "selected-incorrect"
	OptionCorrectNotSelected OptionState = "correct-not-selected"
	OptionOther              OptionState = "other"
)

type Score struct {
	Correct  int `json:"correct"`
	Answered int `json:"answered"`
}

type OptionView struct {
	Index int         `json:"index"`
	Text  string      `json:"text"`
	State OptionState `json:"state"`
}

// QuestionView never carries the correct option; it is revealed only
// through the option states once the question is answered.
type QuestionView struct {
	Index          int          `json:"index"`
	Question       string       `json:"question"`
	Options        []OptionView `json:"options"`
	Answered       bool         `json:"answered"`
	SelectedOption *int         `json:"selected_option"`
}

type SessionView struct {
	ID        uuid.UUID      `json:"id"`
	Topic     string         `json:"topic"`
	Pending   bool           `json:"pending"`
	Questions []QuestionView `json:"questions"`
	Score     Score          `json:"score"`
	Complete  bool           `json:"complete"`
	Notice    string         `json:"notice,omitempty"`
}
