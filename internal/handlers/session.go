package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"quizgen-backend/internal/config"
	"quizgen-backend/internal/models"
	"quizgen-backend/internal/quiz"
)

type sessionController interface {
	Snapshot() models.SessionView
	SetTopic(ctx context.Context, topic string) models.SessionView
	RequestQuestions(ctx context.Context, topic string) error
	SelectAnswer(ctx context.Context, questionIndex, optionIndex int) (bool, error)
	Reset(ctx context.Context) models.SessionView
}

type SessionHandler struct {
	controller sessionController
}

func NewSessionHandler(controller sessionController) *SessionHandler {
	return &SessionHandler{controller: controller}
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.controller.Snapshot())
}

func (h *SessionHandler) SetTopic(w http.ResponseWriter, r *http.Request) {
	var req models.SetTopicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	writeJSON(w, http.StatusOK, h.controller.SetTopic(r.Context(), req.Topic))
}

func (h *SessionHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateQuestionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	err := h.controller.RequestQuestions(r.Context(), req.Topic)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, h.controller.Snapshot())
	case errors.Is(err, quiz.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", quiz.NoticeEmptyTopic, r))
	case errors.Is(err, quiz.ErrRequestPending):
		writeJSON(w, http.StatusConflict, errorResp("REQUEST_PENDING", "Questions are already being generated", r))
	case errors.Is(err, quiz.ErrGenerationFailed):
		writeJSON(w, http.StatusBadGateway, errorResp("GENERATION_FAILED", quiz.NoticeGenerationFailed, r))
	default:
		config.WithContext(r.Context()).WithError(err).Error("unexpected generation error")
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Something went wrong", r))
	}
}

func (h *SessionHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req models.SelectAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.QuestionIndex == nil || req.OptionIndex == nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "question_index and option_index are required", r))
		return
	}

	applied, err := h.controller.SelectAnswer(r.Context(), *req.QuestionIndex, *req.OptionIndex)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "No such question or option", r))
		return
	}

	writeJSON(w, http.StatusOK, models.SelectAnswerResponse{
		Applied: applied,
		Session: h.controller.Snapshot(),
	})
}

func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.controller.Reset(r.Context()))
}
