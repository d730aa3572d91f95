package quiz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"quizgen-backend/internal/config"
	"quizgen-backend/internal/models"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrGenerationFailed = errors.New("generation failed")
	ErrInvalidAnswer    = errors.New("invalid answer")
	ErrRequestPending   = errors.New("generation request already pending")
)

const (
	NoticeEmptyTopic       = "Please enter a topic for your questions"
	NoticeGenerationFailed = "Failed to generate questions. Please try again."
)

// Gateway produces questions for a topic.
type Gateway interface {
	GenerateQuestions(ctx context.Context, topic string) ([]models.Question, error)
}

// Publisher receives every state change of the controller.
type Publisher interface {
	Publish(ctx context.Context, msg models.WSMessage)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, models.WSMessage) {}

// Controller owns the single quiz session of the process.
type Controller struct {
	gateway   Gateway
	publisher Publisher

	mu      sync.Mutex
	session *Session
	pending bool
	topic   string
	notice  string
}

func NewController(gateway Gateway, publisher Publisher) *Controller {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &Controller{
		gateway:   gateway,
		publisher: publisher,
		session:   emptySession(),
	}
}

// SetTopic updates the topic input text.
func (c *Controller) SetTopic(ctx context.Context, topic string) models.SessionView {
	c.mu.Lock()
	c.topic = topic
	view := c.snapshotLocked()
	c.mu.Unlock()

	c.publisher.Publish(ctx, models.WSMessage{Type: models.EventTopicChanged, Payload: view})
	return view
}

// RequestQuestions asks the gateway for a new set of questions and, on
// success, replaces the current session with a fresh one. The gateway call
// is not cancelled when ctx is; once issued it runs to completion.
func (c *Controller) RequestQuestions(ctx context.Context, topic string) error {
	log := config.WithContext(ctx)

	c.mu.Lock()
	if strings.TrimSpace(topic) == "" {
		c.notice = NoticeEmptyTopic
		c.mu.Unlock()
		return fmt.Errorf("%w: topic is empty", ErrInvalidInput)
	}
	if c.pending {
		c.mu.Unlock()
		log.Debug("generation request dropped, another one is pending")
		return ErrRequestPending
	}
	c.pending = true
	c.topic = topic
	c.notice = ""
	started := c.snapshotLocked()
	c.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	c.publisher.Publish(ctx, models.WSMessage{Type: models.EventGenerationStarted, Payload: started})

	questions, err := c.generate(ctx, topic)

	c.mu.Lock()
	c.pending = false
	if err != nil {
		c.notice = NoticeGenerationFailed
		view := c.snapshotLocked()
		c.mu.Unlock()

		log.WithError(err).WithField("topic", topic).Error("question generation failed")
		c.publisher.Publish(ctx, models.WSMessage{Type: models.EventGenerationFailed, Payload: view})
		return fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	c.session = newSession(questions)
	view := c.snapshotLocked()
	c.mu.Unlock()

	log.WithField("session_id", view.ID).Infof("new session with %d questions", len(questions))
	c.publisher.Publish(ctx, models.WSMessage{Type: models.EventSessionReplaced, Payload: view})
	return nil
}

// generate turns a gateway panic into an error so the pending flag is
// always cleared.
func (c *Controller) generate(ctx context.Context, topic string) (questions []models.Question, err error) {
	defer func() {
		if r := recover(); r != nil {
			questions, err = nil, fmt.Errorf("gateway panic: %v", r)
		}
	}()
	return c.gateway.GenerateQuestions(ctx, topic)
}

// SelectAnswer records the first answer given to a question. A repeated
// answer is ignored and reported as applied == false.
func (c *Controller) SelectAnswer(ctx context.Context, questionIndex, optionIndex int) (bool, error) {
	c.mu.Lock()
	if !c.session.validIndices(questionIndex, optionIndex) {
		c.mu.Unlock()
		return false, fmt.Errorf("%w: question %d option %d", ErrInvalidAnswer, questionIndex, optionIndex)
	}
	if !c.session.record(questionIndex, optionIndex) {
		c.mu.Unlock()
		return false, nil
	}
	complete := c.session.IsComplete()
	view := c.snapshotLocked()
	c.mu.Unlock()

	c.publisher.Publish(ctx, models.WSMessage{Type: models.EventAnswerRecorded, Payload: view})
	if complete {
		config.WithContext(ctx).WithField("session_id", view.ID).
			Infof("quiz complete: %d/%d", view.Score.Correct, view.Score.Answered)
		c.publisher.Publish(ctx, models.WSMessage{Type: models.EventQuizCompleted, Payload: view})
	}
	return true, nil
}

// Reset discards the current session and clears the topic.
func (c *Controller) Reset(ctx context.Context) models.SessionView {
	c.mu.Lock()
	c.session = emptySession()
	c.topic = ""
	c.notice = ""
	view := c.snapshotLocked()
	c.mu.Unlock()

	c.publisher.Publish(ctx, models.WSMessage{Type: models.EventSessionReset, Payload: view})
	return view
}

func (c *Controller) Score() (correct, answered int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Score()
}

func (c *Controller) IsComplete() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.IsComplete()
}

func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

func (c *Controller) OptionState(questionIndex, optionIndex int) models.OptionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.OptionState(questionIndex, optionIndex)
}

func (c *Controller) SessionID() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.ID
}

func (c *Controller) Snapshot() models.SessionView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() models.SessionView {
	v := c.session.view()
	v.Topic = c.topic
	v.Pending = c.pending
	v.Notice = c.notice
	return v
}
