package quiz

import (
	"bytes"
	"encoding/json"
)

// Meta is the per-quiz configuration bag. Keys the engine does not read are
// kept in Extra so editors get back exactly what they stored.
type Meta struct {
	// RightAnswer is a scalar, an array or an object keyed by item id,
	// depending on the quiz type.
	RightAnswer   json.RawMessage   `json:"rightAnswer,omitempty"`
	Regex         bool              `json:"regex,omitempty"`
	Multi         bool              `json:"multi,omitempty"`
	Successes     map[string]string `json:"successes,omitempty"`
	Errors        map[string]string `json:"errors,omitempty"`
	Success       string            `json:"success,omitempty"`
	Error         string            `json:"error,omitempty"`
	SubmitMessage string            `json:"submitMessage,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var metaKeys = []string{"rightAnswer", "regex", "multi", "successes", "errors", "success", "error", "submitMessage"}

type metaFields Meta

func (m *Meta) UnmarshalJSON(b []byte) error {
	var f metaFields
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for _, k := range metaKeys {
		delete(raw, k)
	}
	if isNull(f.RightAnswer) {
		f.RightAnswer = nil
	}
	*m = Meta(f)
	if len(raw) > 0 {
		m.Extra = raw
	}
	return nil
}

func (m Meta) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(metaFields(m))
	if err != nil || len(m.Extra) == 0 {
		return known, err
	}
	merged := make(map[string]json.RawMessage, len(m.Extra)+len(metaKeys))
	for k, v := range m.Extra {
		merged[k] = v
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		merged[k] = v
	}
	return json.Marshal(merged)
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
