package quiz

import (
	"github.com/google/uuid"

	"quizgen-backend/internal/models"
)

// Session is the state of one quiz attempt. The answered set and the keys
// of selected are always identical.
type Session struct {
	ID        uuid.UUID
	questions []models.Question
	answered  map[int]struct{}
	selected  map[int]int
	correct   int
}

func newSession(questions []models.Question) *Session {
	return &Session{
		ID:        uuid.New(),
		questions: questions,
		answered:  make(map[int]struct{}),
		selected:  make(map[int]int),
	}
}

func emptySession() *Session {
	return newSession(nil)
}

// Score returns the number of correct answers and the number of answered questions.
func (s *Session) Score() (correct, answered int) {
	return s.correct, len(s.answered)
}

func (s *Session) IsComplete() bool {
	return len(s.questions) > 0 && len(s.answered) == len(s.questions)
}

func (s *Session) IsAnswered(questionIndex int) bool {
	_, ok := s.answered[questionIndex]
	return ok
}

// Selected returns the option chosen for questionIndex, if answered.
func (s *Session) Selected(questionIndex int) (int, bool) {
	o, ok := s.selected[questionIndex]
	return o, ok
}

func (s *Session) validIndices(questionIndex, optionIndex int) bool {
	if questionIndex < 0 || questionIndex >= len(s.questions) {
		return false
	}
	return optionIndex >= 0 && optionIndex < len(s.questions[questionIndex].Options)
}

// record applies a first answer. It reports false when the question was
// already answered.
func (s *Session) record(questionIndex, optionIndex int) bool {
	if s.IsAnswered(questionIndex) {
		return false
	}
	s.answered[questionIndex] = struct{}{}
	s.selected[questionIndex] = optionIndex
	if s.questions[questionIndex].CorrectOption == optionIndex {
		s.correct++
	}
	return true
}

// OptionState reports how an option should be presented.
func (s *Session) OptionState(questionIndex, optionIndex int) models.OptionState {
	selected, ok := s.selected[questionIndex]
	if !ok || questionIndex < 0 || questionIndex >= len(s.questions) {
		return models.OptionUnanswered
	}
	correct := s.questions[questionIndex].CorrectOption
	switch {
	case optionIndex == selected && optionIndex == correct:
		return models.OptionSelectedCorrect
	case optionIndex == selected:
		return models.OptionSelectedIncorrect
	case optionIndex == correct:
		return models.OptionCorrectNotSelected
	default:
		return models.OptionOther
	}
}

func (s *Session) view() models.SessionView {
	correct, answered := s.Score()
	v := models.SessionView{
		ID:        s.ID,
		Questions: make([]models.QuestionView, len(s.questions)),
		Score:     models.Score{Correct: correct, Answered: answered},
		Complete:  s.IsComplete(),
	}
	for qi, q := range s.questions {
		qv := models.QuestionView{
			Index:    qi,
			Question: q.Question,
			Options:  make([]models.OptionView, len(q.Options)),
			Answered: s.IsAnswered(qi),
		}
		if o, ok := s.selected[qi]; ok {
			o := o
			qv.SelectedOption = &o
		}
		for oi, text := range q.Options {
			qv.Options[oi] = models.OptionView{Index: oi, Text: text, State: s.OptionState(qi, oi)}
		}
		v.Questions[qi] = qv
	}
	return v
}
