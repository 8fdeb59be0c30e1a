package quiz

import (
	"encoding/json"
	"slices"
)

type Type string

const (
	TypeEssay          Type = "ESSAY"
	TypeMultipleChoice Type = "MULTIPLE_CHOICE"
	TypeOpen           Type = "OPEN"
	TypeRadioMatrix    Type = "RADIO_MATRIX"
	TypeMultipleOpen   Type = "MULTIPLE_OPEN"

	// Unscored pass-through variants.
	TypeCheckbox            Type = "CHECKBOX"
	TypePeerReview          Type = "PEER_REVIEW"
	TypePeerReviewsReceived Type = "PEER_REVIEWS_RECEIVED"
	TypeScale               Type = "SCALE"
)

// TagIgnore excludes a quiz from aggregate totals while keeping it visible.
const TagIgnore = "ignore"

// ItemScored reports whether points for t are counted per item rather than per quiz.
func (t Type) ItemScored() bool {
	return t == TypeRadioMatrix || t == TypeMultipleOpen
}

type Item struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
	Body  string `json:"body,omitempty"`
}

type Choice struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

type Data struct {
	Items   []Item   `json:"items,omitempty"`
	Choices []Choice `json:"choices,omitempty"`
	Meta    Meta     `json:"meta"`
}

type Quiz struct {
	ID        string   `json:"_id"`
	Type      Type     `json:"type"`
	Title     string   `json:"title,omitempty"`
	Body      string   `json:"body,omitempty"`
	UserID    string   `json:"userId,omitempty"`
	Tags      []string `json:"tags"`
	Data      Data     `json:"data"`
	CreatedAt int64    `json:"createdAt,omitempty"` // unix millis
}

func (q Quiz) HasTag(tag string) bool { return slices.Contains(q.Tags, tag) }

// Ignored reports whether the quiz is tagged to be left out of totals.
func (q Quiz) Ignored() bool { return q.HasTag(TagIgnore) }

// Stripped returns a copy safe to show a learner before grading: no items,
// choices, answer keys or feedback messages.
func (q Quiz) Stripped() Quiz {
	out := q
	out.Tags = slices.Clone(q.Tags)
	meta := q.Data.Meta
	meta.RightAnswer = nil
	meta.Successes = nil
	meta.Errors = nil
	meta.Success = ""
	meta.Error = ""
	if len(q.Data.Meta.Extra) > 0 {
		meta.Extra = make(map[string]json.RawMessage, len(q.Data.Meta.Extra))
		for k, v := range q.Data.Meta.Extra {
			meta.Extra[k] = v
		}
	}
	out.Data = Data{Meta: meta}
	return out
}

// Answer is one learner submission for a quiz. Data mirrors the shape the
// quiz type expects: a scalar, an array or an object keyed by item id.
type Answer struct {
	ID              string          `json:"_id"`
	QuizID          string          `json:"quizId"`
	AnswererID      string          `json:"answererId"`
	Data            json.RawMessage `json:"data,omitempty"`
	Confirmed       bool            `json:"confirmed"`
	Rejected        bool            `json:"rejected"`
	SpamFlags       int             `json:"spamFlags"`
	PeerReviewCount int             `json:"peerReviewCount"`
	CreatedAt       int64           `json:"createdAt,omitempty"`
}

// PeerReview records that Giver reviewed Target's answer to SourceQuizID.
// QuizID is the peer-review quiz the review was written for.
type PeerReview struct {
	ID                   string          `json:"_id"`
	QuizID               string          `json:"quizId"`
	SourceQuizID         string          `json:"sourceQuizId"`
	GiverAnswererID      string          `json:"giverAnswererId"`
	TargetAnswererID     string          `json:"targetAnswererId"`
	ChosenQuizAnswerID   string          `json:"chosenQuizAnswerId,omitempty"`
	RejectedQuizAnswerID string          `json:"rejectedQuizAnswerId,omitempty"`
	Review               json.RawMessage `json:"review,omitempty"`
	CreatedAt            int64           `json:"createdAt,omitempty"`
}

// PeerReviewSet is attached to essay entries of a progress report.
type PeerReviewSet struct {
	Given    []PeerReview `json:"given"`
	Received []PeerReview `json:"received"`
}

type Confirmation struct {
	AnswererID string          `json:"answererId"`
	Data       json.RawMessage `json:"data,omitempty"`
	CreatedAt  int64           `json:"createdAt,omitempty"`
}

// Score is the last recorded normalized result of a learner on a quiz.
type Score struct {
	AnswererID string          `json:"answererId"`
	QuizID     string          `json:"quizId"`
	Score      float64         `json:"score"`
	Meta       json.RawMessage `json:"meta,omitempty"`
	UpdatedAt  int64           `json:"updatedAt,omitempty"`
}
