package grading

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/quizgrade/internal/quiz"
)

func mkQuiz(id string, typ quiz.Type, right string, items ...string) quiz.Quiz {
	q := quiz.Quiz{ID: id, Type: typ, Tags: []string{}}
	if right != "" {
		q.Data.Meta.RightAnswer = json.RawMessage(right)
	}
	for _, it := range items {
		q.Data.Items = append(q.Data.Items, quiz.Item{ID: it})
	}
	return q
}

func answered(q quiz.Quiz, data string, confirmed bool) Entry {
	a := quiz.Answer{ID: q.ID + "-a", QuizID: q.ID, AnswererID: "learner-1", Confirmed: confirmed}
	if data != "" {
		a.Data = json.RawMessage(data)
	}
	return Entry{Quiz: q, Answer: []quiz.Answer{a}}
}

func validate(t *testing.T, e Entry) Validation {
	t.Helper()
	v, err := ValidateAnswer(&e)
	require.NoError(t, err)
	return v.Validation
}

func TestValidateAnswer_NilInput(t *testing.T) {
	_, err := ValidateAnswer(nil)
	assert.ErrorIs(t, err, ErrMissingInput)
}

func TestValidateAnswer_MultipleChoice(t *testing.T) {
	q := mkQuiz("mc", quiz.TypeMultipleChoice, `["b"]`)

	v := validate(t, answered(q, `"b"`, false))
	assert.Equal(t, 1, v.Points)
	assert.Equal(t, 1, v.MaxPoints)
	assert.Equal(t, 1.0, v.NormalizedPoints)
	msg, ok := v.Messages.Single()
	require.True(t, ok)
	assert.Equal(t, Message{Message: "Correct!", Error: false}, msg)

	v = validate(t, answered(q, `"a"`, false))
	assert.Equal(t, 0, v.Points)
	assert.Equal(t, 1, v.MaxPoints)
	msg, _ = v.Messages.Single()
	assert.Equal(t, Message{Message: "Not correct.", Error: true}, msg)
}

func TestValidateAnswer_MultipleChoiceCustomMessages(t *testing.T) {
	q := mkQuiz("mc", quiz.TypeMultipleChoice, `["b", "c"]`)
	q.Data.Meta.Successes = map[string]string{"c": "Also right"}
	q.Data.Meta.Errors = map[string]string{"a": "Think again"}

	msg, _ := validate(t, answered(q, `"c"`, false)).Messages.Single()
	assert.Equal(t, "Also right", msg.Message)

	msg, _ = validate(t, answered(q, `"a"`, false)).Messages.Single()
	assert.Equal(t, "Think again", msg.Message)
	assert.True(t, msg.Error)
}

func TestValidateAnswer_MultipleChoiceNumericIDs(t *testing.T) {
	q := mkQuiz("mc", quiz.TypeMultipleChoice, `[2]`)
	assert.Equal(t, 1, validate(t, answered(q, `2`, false)).Points)
	assert.Equal(t, 0, validate(t, answered(q, `"20"`, false)).Points)
}

func TestValidateAnswer_MultipleChoiceComparesJSONKinds(t *testing.T) {
	tests := []struct {
		name  string
		right string
		data  string
		want  int
	}{
		{"string key, number submitted", `["1"]`, `1`, 0},
		{"number key, string submitted", `[1]`, `"1"`, 0},
		{"string key, string submitted", `["1"]`, `"1"`, 1},
		{"bool key, string submitted", `[true]`, `"true"`, 0},
		{"bool key, bool submitted", `[true]`, `true`, 1},
		{"bare scalar key", `"b"`, `"b"`, 1},
		{"array submitted", `["a"]`, `["a"]`, 0},
		{"missing answer", `["a"]`, ``, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := mkQuiz("mc", quiz.TypeMultipleChoice, tt.right)
			assert.Equal(t, tt.want, validate(t, answered(q, tt.data, false)).Points)
		})
	}
}

func TestValidateAnswer_OpenExact(t *testing.T) {
	q := mkQuiz("open", quiz.TypeOpen, `"paris"`)

	assert.Equal(t, 1, validate(t, answered(q, `"  Paris "`, false)).Points)
	assert.Equal(t, 0, validate(t, answered(q, `"London"`, false)).Points)
	assert.Equal(t, 0, validate(t, answered(q, `"   "`, false)).Points)
	assert.Equal(t, 0, validate(t, answered(q, `{"x": "paris"}`, false)).Points)
}

func TestValidateAnswer_OpenRegex(t *testing.T) {
	q := mkQuiz("open", quiz.TypeOpen, `"^(colou?r)$"`)
	q.Data.Meta.Regex = true
	q.Data.Meta.Success = "Nice"
	q.Data.Meta.Error = "Nope"

	v := validate(t, answered(q, `" Colour "`, false))
	assert.Equal(t, 1, v.Points)
	msg, _ := v.Messages.Single()
	assert.Equal(t, Message{Message: "Nice"}, msg)

	v = validate(t, answered(q, `"colours"`, false))
	assert.Equal(t, 0, v.Points)
	msg, _ = v.Messages.Single()
	assert.Equal(t, Message{Message: "Nope", Error: true}, msg)
}

func TestValidateAnswer_OpenMalformedRegexNeverMatches(t *testing.T) {
	q := mkQuiz("open", quiz.TypeOpen, `"([a-z"`)
	q.Data.Meta.Regex = true

	v := validate(t, answered(q, `"([a-z"`, false))
	assert.Equal(t, 0, v.Points)
	assert.Equal(t, 1, v.MaxPoints)
}

func TestValidateAnswer_Essay(t *testing.T) {
	q := mkQuiz("essay", quiz.TypeEssay, "")
	q.Data.Meta.SubmitMessage = "Thanks, a teacher will review it."

	v := validate(t, answered(q, `"my essay"`, false))
	assert.Equal(t, 0, v.Points)
	assert.Equal(t, 1, v.MaxPoints)
	msg, _ := v.Messages.Single()
	assert.Equal(t, "Thanks, a teacher will review it.", msg.Message)

	v = validate(t, answered(q, `{"anything": true}`, true))
	assert.Equal(t, 1, v.Points)
	assert.Equal(t, 1.0, v.NormalizedPoints)
}

func TestValidateAnswer_RadioMatrix(t *testing.T) {
	q := mkQuiz("rm", quiz.TypeRadioMatrix, `{"i1": ["a"], "i2": ["b", "c"], "i3": ["a"]}`, "i1", "i2", "i3")
	q.Data.Meta.Errors = map[string]string{"i3": "Look at row three"}

	v := validate(t, answered(q, `{"i1": "a", "i2": "c", "i3": "b"}`, false))
	assert.Equal(t, 2, v.Points)
	assert.Equal(t, 3, v.MaxPoints)
	assert.Equal(t, 0.67, v.NormalizedPoints)
	assert.Equal(t, 3, v.Messages.Len())

	m, ok := v.Messages.Item("i1")
	require.True(t, ok)
	assert.Equal(t, Message{Message: "Correct!"}, m)
	m, _ = v.Messages.Item("i3")
	assert.Equal(t, Message{Message: "Look at row three", Error: true}, m)
}

func TestValidateAnswer_RadioMatrixMulti(t *testing.T) {
	q := mkQuiz("rm", quiz.TypeRadioMatrix, `{"i1": ["a", "b"], "i2": ["c"]}`, "i1", "i2")
	q.Data.Meta.Multi = true

	tests := []struct {
		name   string
		data   string
		points int
	}{
		{"exact sets", `{"i1": ["b", "a"], "i2": ["c"]}`, 2},
		{"bare scalar is a singleton", `{"i1": ["a", "b"], "i2": "c"}`, 2},
		{"subset is wrong", `{"i1": ["a"], "i2": ["c"]}`, 1},
		{"superset is wrong", `{"i1": ["a", "b", "d"], "i2": ["c"]}`, 1},
		{"missing item is wrong", `{"i1": ["a", "b"]}`, 1},
		{"empty set is wrong", `{"i1": [], "i2": []}`, 0},
		{"no data", ``, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := validate(t, answered(q, tt.data, false))
			assert.Equal(t, tt.points, v.Points)
			assert.Equal(t, 2, v.MaxPoints)
		})
	}
}

func TestValidateAnswer_RadioMatrixWithoutItems(t *testing.T) {
	q := mkQuiz("rm", quiz.TypeRadioMatrix, `{}`)

	v := validate(t, answered(q, `{}`, false))
	assert.Equal(t, 0, v.Points)
	assert.Equal(t, 0, v.MaxPoints)
	assert.Equal(t, 0.0, v.NormalizedPoints)
}

func TestValidateAnswer_MultipleOpen(t *testing.T) {
	q := mkQuiz("mo", quiz.TypeMultipleOpen, `{"i1": "red", "i2": "green", "i3": "blue"}`, "i1", "i2", "i3")

	v := validate(t, answered(q, `{"i1": "Red", "i2": " green ", "i3": "yellow"}`, false))
	assert.Equal(t, 2, v.Points)
	assert.Equal(t, 3, v.MaxPoints)
	assert.Equal(t, 0.67, v.NormalizedPoints)

	m, _ := v.Messages.Item("i3")
	assert.True(t, m.Error)
}

func TestValidateAnswer_MultipleOpenRegexAndMissing(t *testing.T) {
	q := mkQuiz("mo", quiz.TypeMultipleOpen, `{"i1": "^\\d+$", "i2": "x"}`, "i1", "i2")
	q.Data.Meta.Regex = true

	v := validate(t, answered(q, `{"i1": " 42 "}`, false))
	assert.Equal(t, 1, v.Points)
	m, _ := v.Messages.Item("i2")
	assert.True(t, m.Error)
}

func TestValidateAnswer_UnknownType(t *testing.T) {
	for _, typ := range []quiz.Type{quiz.TypeCheckbox, quiz.TypeScale, "SOMETHING_NEW"} {
		q := mkQuiz("q", typ, `"x"`)
		v := validate(t, answered(q, `"x"`, true))
		assert.Equal(t, 0, v.Points, typ)
		assert.Equal(t, 1, v.MaxPoints, typ)
		assert.Equal(t, 0.0, v.NormalizedPoints, typ)
		assert.Equal(t, 0, v.Messages.Len(), typ)
	}
}

func TestValidateAnswer_NoAnswerScoresIncorrect(t *testing.T) {
	q := mkQuiz("mc", quiz.TypeMultipleChoice, `["b"]`)
	v := validate(t, Entry{Quiz: q})
	assert.Equal(t, 0, v.Points)
	assert.Equal(t, 1, v.MaxPoints)
}

func TestValidateAnswer_PassesThroughRightAnswerAndPeerReviews(t *testing.T) {
	q := mkQuiz("mc", quiz.TypeMultipleChoice, `["b"]`)
	e := answered(q, `"b"`, false)
	e.PeerReviews = &quiz.PeerReviewSet{Given: []quiz.PeerReview{{ID: "pr1"}}}

	out, err := ValidateAnswer(&e)
	require.NoError(t, err)
	assert.JSONEq(t, `["b"]`, string(out.Validation.RightAnswer))
	assert.Same(t, e.PeerReviews, out.PeerReviews)
	assert.Equal(t, e.Answer, out.Answer)
}

func TestValidationJSON(t *testing.T) {
	q := mkQuiz("mc", quiz.TypeMultipleChoice, `["b"]`)
	v := validate(t, answered(q, `"b"`, false))

	b, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"messages": {"message": "Correct!", "error": false},
		"rightAnswer": ["b"],
		"points": 1,
		"maxPoints": 1,
		"normalizedPoints": 1
	}`, string(b))

	var back Validation
	require.NoError(t, json.Unmarshal(b, &back))
	msg, ok := back.Messages.Single()
	require.True(t, ok)
	assert.Equal(t, "Correct!", msg.Message)
}

func TestEngine_RegexTimeoutOption(t *testing.T) {
	e := New(WithRegexTimeout(time.Second), WithWorkers(0))
	assert.Equal(t, time.Second, e.cfg.RegexTimeout)
	assert.Equal(t, 1, e.cfg.Workers)

	re := e.pattern("^a+$")
	require.NotNil(t, re)
	assert.Equal(t, time.Second, re.MatchTimeout)
	assert.Same(t, re, e.pattern("^a+$"))
	assert.Nil(t, e.pattern("(unclosed"))
}
