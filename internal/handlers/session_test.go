package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"quizgen-backend/internal/models"
	"quizgen-backend/internal/quiz"
)

type stubGateway struct {
	questions []models.Question
	err       error
	calls     int
}

func (g *stubGateway) GenerateQuestions(ctx context.Context, topic string) ([]models.Question, error) {
	g.calls++
	return g.questions, g.err
}

func sampleQuestions() []models.Question {
	return []models.Question{
		{Question: "Capital of France?", Options: []string{"Paris", "Lyon", "Nice", "Lille"}, CorrectOption: 0},
		{Question: "Capital of Spain?", Options: []string{"Seville", "Madrid", "Valencia", "Bilbao"}, CorrectOption: 1},
	}
}

func newTestHandler(gw *stubGateway) *SessionHandler {
	return NewSessionHandler(quiz.NewController(gw, nil))
}

func doJSON(t *testing.T, handler http.HandlerFunc, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

func decodeView(t *testing.T, rr *httptest.ResponseRecorder) models.SessionView {
	t.Helper()
	var view models.SessionView
	if err := json.NewDecoder(rr.Body).Decode(&view); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return view
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) models.APIError {
	t.Helper()
	var resp models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode error: %v", err)
	}
	return resp.Error
}

func TestSessionHandler_GetEmpty(t *testing.T) {
	h := newTestHandler(&stubGateway{})

	rr := doJSON(t, h.Get, http.MethodGet, "/api/v1/session", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	view := decodeView(t, rr)
	if len(view.Questions) != 0 || view.Complete || view.Pending {
		t.Fatalf("expected empty session, got %+v", view)
	}
	if rr.Header().Get("Content-Type") != "application/json" {
		t.Errorf("Expected Content-Type 'application/json', got %q", rr.Header().Get("Content-Type"))
	}
}

func TestSessionHandler_Generate(t *testing.T) {
	gw := &stubGateway{questions: sampleQuestions()}
	h := newTestHandler(gw)

	rr := doJSON(t, h.Generate, http.MethodPost, "/api/v1/session/generate", map[string]string{"topic": "capitals"})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	view := decodeView(t, rr)
	if len(view.Questions) != 2 || view.Topic != "capitals" {
		t.Fatalf("unexpected view: %+v", view)
	}
	for _, o := range view.Questions[0].Options {
		if o.State != models.OptionUnanswered {
			t.Fatalf("options must be unanswered in a fresh session, got %s", o.State)
		}
	}
}

func TestSessionHandler_GenerateErrors(t *testing.T) {
	tests := []struct {
		name     string
		gw       *stubGateway
		body     interface{}
		rawBody  string
		wantCode int
		wantErr  string
	}{
		{"empty topic", &stubGateway{}, map[string]string{"topic": "  "}, "", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"bad json", &stubGateway{}, nil, "{", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"gateway failure", &stubGateway{err: errors.New("boom")}, map[string]string{"topic": "x"}, "", http.StatusBadGateway, "GENERATION_FAILED"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHandler(tc.gw)

			var rr *httptest.ResponseRecorder
			if tc.rawBody != "" {
				req := httptest.NewRequest(http.MethodPost, "/api/v1/session/generate", bytes.NewBufferString(tc.rawBody))
				rr = httptest.NewRecorder()
				h.Generate(rr, req)
			} else {
				rr = doJSON(t, h.Generate, http.MethodPost, "/api/v1/session/generate", tc.body)
			}

			if rr.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d", tc.wantCode, rr.Code)
			}
			if got := decodeError(t, rr); got.Code != tc.wantErr {
				t.Fatalf("expected %s, got %s", tc.wantErr, got.Code)
			}
		})
	}
}

func TestSessionHandler_GenerateFailureKeepsSession(t *testing.T) {
	gw := &stubGateway{questions: sampleQuestions()}
	h := newTestHandler(gw)
	doJSON(t, h.Generate, http.MethodPost, "/", map[string]string{"topic": "capitals"})
	before := decodeView(t, doJSON(t, h.Get, http.MethodGet, "/", nil))

	gw.err = errors.New("network error")
	rr := doJSON(t, h.Generate, http.MethodPost, "/", map[string]string{"topic": "rivers"})
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rr.Code)
	}
	if msg := decodeError(t, rr).Message; msg != quiz.NoticeGenerationFailed {
		t.Fatalf("expected failure notice, got %q", msg)
	}

	after := decodeView(t, doJSON(t, h.Get, http.MethodGet, "/", nil))
	if after.ID != before.ID || len(after.Questions) != 2 {
		t.Fatalf("session must be untouched, before %+v after %+v", before.ID, after.ID)
	}
}

func TestSessionHandler_Answer(t *testing.T) {
	h := newTestHandler(&stubGateway{questions: sampleQuestions()})
	doJSON(t, h.Generate, http.MethodPost, "/", map[string]string{"topic": "capitals"})

	answer := func(q, o int) models.SelectAnswerResponse {
		rr := doJSON(t, h.Answer, http.MethodPost, "/api/v1/session/answers", map[string]int{"question_index": q, "option_index": o})
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
		}
		var resp models.SelectAnswerResponse
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		return resp
	}

	first := answer(0, 0)
	if !first.Applied || first.Session.Score != (models.Score{Correct: 1, Answered: 1}) {
		t.Fatalf("unexpected first answer response: %+v", first)
	}

	repeat := answer(0, 2)
	if repeat.Applied || repeat.Session.Score != (models.Score{Correct: 1, Answered: 1}) {
		t.Fatalf("repeat answer must be ignored: %+v", repeat)
	}

	last := answer(1, 0)
	if !last.Session.Complete || last.Session.Score != (models.Score{Correct: 1, Answered: 2}) {
		t.Fatalf("expected completed quiz, got %+v", last.Session)
	}
	states := last.Session.Questions[1].Options
	if states[0].State != models.OptionSelectedIncorrect || states[1].State != models.OptionCorrectNotSelected {
		t.Fatalf("unexpected option states: %+v", states)
	}
}

func TestSessionHandler_AnswerValidation(t *testing.T) {
	h := newTestHandler(&stubGateway{questions: sampleQuestions()})
	doJSON(t, h.Generate, http.MethodPost, "/", map[string]string{"topic": "capitals"})

	tests := []struct {
		name string
		body interface{}
	}{
		{"missing fields", map[string]int{}},
		{"missing option", map[string]int{"question_index": 0}},
		{"question out of range", map[string]int{"question_index": 9, "option_index": 0}},
		{"option out of range", map[string]int{"question_index": 0, "option_index": 4}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := doJSON(t, h.Answer, http.MethodPost, "/api/v1/session/answers", tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rr.Code)
			}
		})
	}
}

func TestSessionHandler_TopicAndReset(t *testing.T) {
	h := newTestHandler(&stubGateway{questions: sampleQuestions()})

	view := decodeView(t, doJSON(t, h.SetTopic, http.MethodPut, "/api/v1/session/topic", map[string]string{"topic": "Colombia"}))
	if view.Topic != "Colombia" {
		t.Fatalf("expected topic Colombia, got %q", view.Topic)
	}

	doJSON(t, h.Generate, http.MethodPost, "/", map[string]string{"topic": "Colombia"})
	doJSON(t, h.Answer, http.MethodPost, "/", map[string]int{"question_index": 0, "option_index": 0})

	view = decodeView(t, doJSON(t, h.Reset, http.MethodPost, "/api/v1/session/reset", nil))
	if view.Topic != "" || len(view.Questions) != 0 || view.Complete {
		t.Fatalf("expected empty session after reset, got %+v", view)
	}
}
