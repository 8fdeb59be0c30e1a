package syncx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2/clientcredentials"
)

// GradebookScore is the payload an external gradebook receives per learner
// and quiz. ScoreGiven is the normalized score, so ScoreMaximum is always 1.
type GradebookScore struct {
	UserID           string    `json:"userId"`
	QuizID           string    `json:"quizId"`
	ScoreGiven       float64   `json:"scoreGiven"`
	ScoreMaximum     float64   `json:"scoreMaximum"`
	ActivityProgress string    `json:"activityProgress"`
	GradingProgress  string    `json:"gradingProgress"`
	Timestamp        time.Time `json:"timestamp"`
}

type ScorePoster interface {
	PostScores(ctx context.Context, scores []GradebookScore) error
}

type GradebookConfig struct {
	URL string
	// Client credentials; plain requests are sent when TokenURL is empty.
	TokenURL     string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

type GradebookClient struct {
	http *http.Client
	url  string
}

func NewGradebookClient(cfg GradebookConfig) *GradebookClient {
	h := &http.Client{}
	if cfg.TokenURL != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		}
		h = cc.Client(context.Background())
	}
	if cfg.Timeout > 0 {
		h.Timeout = cfg.Timeout
	}
	return &GradebookClient{http: h, url: cfg.URL}
}

func (c *GradebookClient) PostScores(ctx context.Context, scores []GradebookScore) error {
	body, err := json.Marshal(map[string]any{"scores": scores})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		return fmt.Errorf("post scores: %s", res.Status)
	}
	return nil
}

type Clock func() time.Time

// ForwarderCursor names the gradebook forwarder's row in a CursorStore.
const ForwarderCursor = "gradebook"

// Forwarder tails the event log and pushes recorded scores to a gradebook.
// The cursor only advances after a page was delivered, so a failed page is
// retried on the next pass. It is read from Cursors on the first pass and
// saved after every delivered page.
type Forwarder struct {
	Log     Log
	Dest    ScorePoster
	Cursors CursorStore
	Name    string
	Now     Clock
	Batch   int

	logger *zap.Logger
	mu     sync.Mutex
	loaded bool
	cursor int64
}

// NewForwarder uses an in-memory cursor when cursors is nil.
func NewForwarder(log Log, dest ScorePoster, cursors CursorStore, logger *zap.Logger) *Forwarder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cursors == nil {
		cursors = NewMemoryCursor()
	}
	return &Forwarder{
		Log: log, Dest: dest, Cursors: cursors, Name: ForwarderCursor,
		Now: time.Now, Batch: 100, logger: logger,
	}
}

// Cursor is the offset of the last event handled.
func (f *Forwarder) Cursor() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cursor
}

// SyncOnce delivers one page of events and reports how many scores it posted.
func (f *Forwarder) SyncOnce(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.loaded {
		off, err := f.Cursors.Load(ctx, f.Name)
		if err != nil {
			return 0, fmt.Errorf("load cursor: %w", err)
		}
		f.cursor, f.loaded = off, true
	}

	evs, err := f.Log.Since(ctx, f.cursor, f.Batch)
	if err != nil {
		return 0, fmt.Errorf("read events: %w", err)
	}
	if len(evs) == 0 {
		return 0, nil
	}

	var scores []GradebookScore
	for _, e := range evs {
		if e.Type != EventScoreRecorded {
			continue
		}
		var s struct {
			AnswererID string  `json:"answererId"`
			QuizID     string  `json:"quizId"`
			Score      float64 `json:"score"`
		}
		if err := json.Unmarshal([]byte(e.DataJSON), &s); err != nil {
			f.logger.Warn("skipping malformed score event", zap.Int64("offset", e.Offset), zap.Error(err))
			continue
		}
		scores = append(scores, GradebookScore{
			UserID:           s.AnswererID,
			QuizID:           s.QuizID,
			ScoreGiven:       s.Score,
			ScoreMaximum:     1,
			ActivityProgress: "Completed",
			GradingProgress:  "FullyGraded",
			Timestamp:        f.Now(),
		})
	}

	if len(scores) > 0 {
		if err := f.Dest.PostScores(ctx, scores); err != nil {
			return 0, err
		}
	}
	f.cursor = evs[len(evs)-1].Offset
	if err := f.Cursors.Save(ctx, f.Name, f.cursor); err != nil {
		// The page is delivered; the next successful save catches up.
		f.logger.Warn("save cursor failed", zap.Int64("cursor", f.cursor), zap.Error(err))
	}
	return len(scores), nil
}

// Run calls SyncOnce every interval until ctx ends. A non-positive interval
// disables forwarding.
func (f *Forwarder) Run(ctx context.Context, every time.Duration) {
	if every <= 0 {
		f.logger.Error("score forwarding disabled: interval must be positive", zap.Duration("every", every))
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := f.SyncOnce(ctx)
			if err != nil {
				f.logger.Error("score forward failed", zap.Int64("cursor", f.Cursor()), zap.Error(err))
				continue
			}
			if n > 0 {
				f.logger.Info("scores forwarded", zap.Int("count", n), zap.Int64("cursor", f.Cursor()))
			}
		}
	}
}
