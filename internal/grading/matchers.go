package grading

import "github.com/mind-engage/quizgrade/internal/quiz"

// outcome is what a matcher reports before normalization.
type outcome struct {
	messages  Messages
	points    int
	maxPoints int
}

func verdict(correct bool, success, failure string) Message {
	if correct {
		return Message{Message: orDefault(success, RightAnswerMessage)}
	}
	return Message{Message: orDefault(failure, WrongAnswerMessage), Error: true}
}

func single(msg Message) outcome {
	o := outcome{messages: SingleMessage(msg), maxPoints: 1}
	if !msg.Error {
		o.points = 1
	}
	return o
}

// perItem folds item verdicts into an outcome worth one point per item.
func perItem(items []quiz.Item, judge func(quiz.Item) Message) outcome {
	msgs := make(map[string]Message, len(items))
	for _, it := range items {
		msgs[it.ID] = judge(it)
	}
	o := outcome{messages: ItemMessages(msgs), maxPoints: len(items)}
	for _, m := range msgs {
		if !m.Error {
			o.points++
		}
	}
	return o
}

// matchEssay never looks at content: a confirmed essay earns its point.
func matchEssay(meta quiz.Meta, confirmed bool) outcome {
	o := outcome{messages: SingleMessage(Message{Message: meta.SubmitMessage}), maxPoints: 1}
	if confirmed {
		o.points = 1
	}
	return o
}

func matchMultipleChoice(meta quiz.Meta, data any) outcome {
	key, ok := typed(data)
	choice := text(data)
	correct := ok && contains(typedSet(decode(meta.RightAnswer)), key)
	return single(verdict(correct, meta.Successes[choice], meta.Errors[choice]))
}

func (e *Engine) matchOpen(meta quiz.Meta, data any) outcome {
	submitted, ok := data.(string)
	correct := ok && e.textCorrect(meta.Regex, text(decode(meta.RightAnswer)), submitted)
	return single(verdict(correct, meta.Success, meta.Error))
}

func matchRadioMatrix(q quiz.Quiz, data any) outcome {
	meta := q.Data.Meta
	right := decode(meta.RightAnswer)
	return perItem(q.Data.Items, func(it quiz.Item) Message {
		want := set(field(right, it.ID))
		got := field(data, it.ID)
		var correct bool
		if meta.Multi {
			picked := set(got)
			correct = len(picked) > 0 && sameSet(picked, want)
		} else {
			choice, ok := scalar(got)
			correct = ok && contains(want, choice)
		}
		return verdict(correct, meta.Successes[it.ID], meta.Errors[it.ID])
	})
}

func (e *Engine) matchMultipleOpen(q quiz.Quiz, data any) outcome {
	meta := q.Data.Meta
	right := decode(meta.RightAnswer)
	return perItem(q.Data.Items, func(it quiz.Item) Message {
		correct := e.textCorrect(meta.Regex, text(field(right, it.ID)), text(field(data, it.ID)))
		return verdict(correct, meta.Successes[it.ID], meta.Errors[it.ID])
	})
}
