package grading

import (
	"runtime"
	"sync"
	"time"

	"github.com/mind-engage/quizgrade/internal/quiz"
)

// Engine options

type Option func(*config)

type config struct {
	RegexTimeout time.Duration // per match, for author supplied patterns
	Workers      int           // concurrent learners in ValidateProgressBatch
}

func WithRegexTimeout(d time.Duration) Option { return func(c *config) { c.RegexTimeout = d } }
func WithWorkers(n int) Option                { return func(c *config) { c.Workers = n } }

// Engine validates answers and folds them into progress reports. It holds no
// per-learner state and is safe for concurrent use.
type Engine struct {
	cfg      config
	patterns sync.Map // pattern source -> *regexp2.Regexp (nil when it does not compile)
}

func New(opts ...Option) *Engine {
	cfg := config{
		RegexTimeout: 100 * time.Millisecond,
		Workers:      runtime.GOMAXPROCS(0),
	}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Engine{cfg: cfg}
}

// Workers is the concurrency limit of ValidateProgressBatch.
func (e *Engine) Workers() int { return e.cfg.Workers }

var defaultEngine = New()

// ValidateAnswer validates in with the default engine.
func ValidateAnswer(in *Entry) (Validated, error) { return defaultEngine.ValidateAnswer(in) }

// ValidateProgress aggregates p with the default engine.
func ValidateProgress(p Progress) ProgressResult { return defaultEngine.ValidateProgress(p) }

// ValidateAnswer scores the first submission of in against its quiz. Only a
// nil entry is an error; bad or missing answer data scores as incorrect.
func (e *Engine) ValidateAnswer(in *Entry) (Validated, error) {
	if in == nil {
		return Validated{}, ErrMissingInput
	}
	return e.validate(*in), nil
}

func (e *Engine) validate(in Entry) Validated {
	var data any = map[string]any{}
	if len(in.Answer) > 0 {
		if v := decode(in.Answer[0].Data); v != nil {
			data = v
		}
	}
	o := e.match(in, data)

	normalized := 0.0
	if o.maxPoints > 0 {
		normalized = float64(o.points) / float64(o.maxPoints)
	}
	return Validated{
		Quiz:        in.Quiz,
		Answer:      in.Answer,
		PeerReviews: in.PeerReviews,
		Validation: Validation{
			Messages:         o.messages,
			RightAnswer:      in.Quiz.Data.Meta.RightAnswer,
			Points:           o.points,
			MaxPoints:        o.maxPoints,
			NormalizedPoints: round2(normalized),
		},
	}
}

func (e *Engine) match(in Entry, data any) outcome {
	q := in.Quiz
	switch q.Type {
	case quiz.TypeEssay:
		return matchEssay(q.Data.Meta, in.confirmed())
	case quiz.TypeMultipleChoice:
		return matchMultipleChoice(q.Data.Meta, data)
	case quiz.TypeOpen:
		return e.matchOpen(q.Data.Meta, data)
	case quiz.TypeRadioMatrix:
		return matchRadioMatrix(q, data)
	case quiz.TypeMultipleOpen:
		return e.matchMultipleOpen(q, data)
	default:
		// Types without a matcher score nothing out of one point.
		return outcome{maxPoints: 1}
	}
}

// maxPointsFor is what q is worth when there is no answer to score.
func maxPointsFor(q quiz.Quiz) int {
	if q.Type.ItemScored() {
		return len(q.Data.Items)
	}
	return 1
}
