package grading

import (
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// normalize lower-cases and trims a free-text answer.
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// tryCompile builds an ECMAScript-flavoured pattern. A pattern that does not
// compile yields ok=false, which callers treat as "never matches".
func tryCompile(expr string, timeout time.Duration) (re *regexp2.Regexp, ok bool) {
	re, err := regexp2.Compile(expr, regexp2.ECMAScript)
	if err != nil {
		return nil, false
	}
	if timeout > 0 {
		re.MatchTimeout = timeout
	}
	return re, true
}

// pattern returns the cached compile result for expr; nil means unusable.
func (e *Engine) pattern(expr string) *regexp2.Regexp {
	if v, ok := e.patterns.Load(expr); ok {
		re, _ := v.(*regexp2.Regexp)
		return re
	}
	re, ok := tryCompile(expr, e.cfg.RegexTimeout)
	if !ok {
		re = nil
	}
	e.patterns.Store(expr, re)
	return re
}

// textCorrect applies the free-text policy shared by OPEN and MULTIPLE_OPEN:
// with regex the key is a pattern searched in the normalized submission,
// otherwise both sides are normalized and compared. A blank submission is
// never correct.
func (e *Engine) textCorrect(regex bool, key, submitted string) bool {
	sub := normalize(submitted)
	if sub == "" {
		return false
	}
	if !regex {
		return sub == normalize(key)
	}
	re := e.pattern(key)
	if re == nil {
		return false
	}
	m, err := re.MatchString(sub)
	return err == nil && m
}
