package models

// Question is one multiple-choice item as returned by the generation gateway.
type Question struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correctOption"`
}

type GenerateQuestionsRequest struct {
	Topic string `json:"topic"`
}

type SetTopicRequest struct {
	Topic string `json:"topic"`
}

type SelectAnswerRequest struct {
	QuestionIndex *int `json:"question_index"`
	OptionIndex   *int `json:"option_index"`
}

type SelectAnswerResponse struct {
	Applied bool        `json:"applied"`
	Session SessionView `json:"session"`
}
