package grading

import (
	"encoding/json"
	"errors"

	"github.com/mind-engage/quizgrade/internal/quiz"
)

// ErrMissingInput is returned when ValidateAnswer gets no entry at all.
var ErrMissingInput = errors.New("no data for validation")

const (
	RightAnswerMessage = "Correct!"
	WrongAnswerMessage = "Not correct."
)

// Entry pairs a quiz with the learner's submissions for it. Only Answer[0]
// is evaluated; callers put the most relevant submission first.
type Entry struct {
	Quiz        quiz.Quiz           `json:"quiz"`
	Answer      []quiz.Answer       `json:"answer,omitempty"`
	PeerReviews *quiz.PeerReviewSet `json:"peerReviews,omitempty"`
}

func (e Entry) confirmed() bool { return len(e.Answer) > 0 && e.Answer[0].Confirmed }

type Message struct {
	Message string `json:"message,omitempty"`
	Error   bool   `json:"error"`
}

// Messages is either one message for the whole quiz or one per item id.
// It serializes as {message, error} or {itemId: {message, error}}.
type Messages struct {
	single *Message
	items  map[string]Message
}

func SingleMessage(m Message) Messages { return Messages{single: &m} }

func ItemMessages(items map[string]Message) Messages { return Messages{items: items} }

func (m Messages) Single() (Message, bool) {
	if m.single == nil {
		return Message{}, false
	}
	return *m.single, true
}

func (m Messages) Item(id string) (Message, bool) {
	msg, ok := m.items[id]
	return msg, ok
}

func (m Messages) Len() int {
	if m.single != nil {
		return 1
	}
	return len(m.items)
}

func (m Messages) MarshalJSON() ([]byte, error) {
	if m.single != nil {
		return json.Marshal(m.single)
	}
	if m.items == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m.items)
}

func (m *Messages) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	if _, ok := fields["error"]; ok {
		var single Message
		if err := json.Unmarshal(b, &single); err != nil {
			return err
		}
		*m = SingleMessage(single)
		return nil
	}
	items := map[string]Message{}
	if err := json.Unmarshal(b, &items); err != nil {
		return err
	}
	*m = ItemMessages(items)
	return nil
}

// Validation is the scored outcome of one answer.
type Validation struct {
	Messages         Messages        `json:"messages"`
	RightAnswer      json.RawMessage `json:"rightAnswer,omitempty"`
	Points           int             `json:"points"`
	MaxPoints        int             `json:"maxPoints"`
	NormalizedPoints float64         `json:"normalizedPoints"`
}

type Validated struct {
	Quiz        quiz.Quiz           `json:"quiz"`
	Answer      []quiz.Answer       `json:"answer,omitempty"`
	PeerReviews *quiz.PeerReviewSet `json:"peerReviews,omitempty"`
	Validation  Validation          `json:"validation"`
}

type MaxPointsOnly struct {
	MaxPoints int `json:"maxPoints"`
}

// Unanswered carries only what could have been earned.
type Unanswered struct {
	Quiz        quiz.Quiz           `json:"quiz"`
	PeerReviews *quiz.PeerReviewSet `json:"peerReviews,omitempty"`
	Validation  MaxPointsOnly       `json:"validation"`
}

type ZeroScore struct {
	Points           int     `json:"points"`
	MaxPoints        int     `json:"maxPoints"`
	NormalizedPoints float64 `json:"normalizedPoints"`
}

type Rejected struct {
	Quiz        quiz.Quiz           `json:"quiz"`
	Answer      []quiz.Answer       `json:"answer,omitempty"`
	PeerReviews *quiz.PeerReviewSet `json:"peerReviews,omitempty"`
	Validation  ZeroScore           `json:"validation"`
}

// Progress groups a learner's quizzes. Missing buckets count as empty.
type Progress struct {
	Answered    []Entry `json:"answered"`
	NotAnswered []Entry `json:"notAnswered"`
	Rejected    []Entry `json:"rejected"`
}

type Totals struct {
	Points                       int     `json:"points"`
	MaxPoints                    int     `json:"maxPoints"`
	MaxCompletedPoints           int     `json:"maxCompletedPoints"`
	ConfirmedAmount              int     `json:"confirmedAmount"`
	IgnoredAmount                int     `json:"ignoredAmount"`
	ConfirmedIgnoredAmount       int     `json:"confirmedIgnoredAmount"`
	NormalizedPoints             float64 `json:"normalizedPoints"`
	MaxNormalizedPoints          int     `json:"maxNormalizedPoints"`
	MaxCompletedNormalizedPoints int     `json:"maxCompletedNormalizedPoints"`
	Score                        float64 `json:"score"`
	PointsPercentage             float64 `json:"pointsPercentage"`
	Progress                     float64 `json:"progress"`
}

type ProgressResult struct {
	Answered    []Validated  `json:"answered"`
	NotAnswered []Unanswered `json:"notAnswered"`
	Rejected    []Rejected   `json:"rejected"`
	Validation  Totals       `json:"validation"`
}
