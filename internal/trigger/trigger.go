// Package trigger implements TriggerScorer: the rule-based decision of
// whether a query warrants memory recall, and the write-time importance
// scorer. Both are grounded on spec.md §4.5's documented heuristics, not on
// an ML classifier — there is no library anywhere in the example corpus for
// small rule-based text classifiers, so this stays regexp/string-matching,
// the same idiom the teacher's chunker package uses for its heading/blank-
// line heuristics.
package trigger

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/rcliao/agent-memory/internal/normalizer"
)

// positiveTriggers are phrases that strongly suggest a query needs recall.
// Turkish set intentionally exceeds 30 entries, English exceeds 15, per
// spec.md §4.5.
var positiveTriggers = []string{
	// Turkish
	"hatirla", "hatirliyor", "hatirliyormusun", "ne konustuk", "daha once",
	"gecen", "gecen hafta", "gecen ay", "dun", "karar", "karar verdik",
	"soylemistim", "demistim", "konusmustuk", "anlatmistim", "unuttun mu",
	"neydi", "kimdi", "nerede kalmistik", "tercih", "kural", "ayarladik",
	"belirledik", "onceki", "gecmiste", "daha onceki", "hatirliyor musun",
	"bahsettim", "bahsetmistim", "aldik", "kurduk", "yazmistim", "soyledim",
	"ne zaman", "nasil yapmistik",
	// English
	"remember", "last time", "previously", "we decided", "you said",
	"i mentioned", "i told you", "what did we", "recall", "earlier you",
	"did we discuss", "what was", "we agreed", "our previous", "before this",
	"you mentioned", "do you recall",
}

// antiTriggers are greetings / acks that should not force a recall.
var antiTriggers = []string{
	"hi", "hello", "hey", "thanks", "thank you", "ok", "okay", "sure",
	"merhaba", "selam", "tesekkurler", "tamam", "peki", "evet", "hayir",
}

var pastTenseRe = regexp.MustCompile(`\b\w+(dim|din|di|dik|diniz|diler|dum|dun|du|duk|tim|tin|ti|tik)\b|\b\w+(ed)\b`)

// Scorer decides recall-worthiness and write-time importance.
type Scorer struct {
	norm *normalizer.Normalizer
}

// New builds a Scorer. Triggered and Importance match against the text they
// are given and do not consult norm, so norm may be nil.
func New(norm *normalizer.Normalizer) *Scorer {
	return &Scorer{norm: norm}
}

func isSingleEmoji(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	runes := []rune(s)
	if len(runes) > 2 {
		return false
	}
	for _, r := range runes {
		if unicode.Is(unicode.So, r) || unicode.Is(unicode.Sk, r) {
			continue
		}
		return false
	}
	return true
}

func isOneWordAck(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return false
	}
	words := strings.Fields(s)
	if len(words) > 1 {
		return false
	}
	for _, a := range antiTriggers {
		if words[0] == a {
			return true
		}
	}
	return false
}

// Triggered implements the query trigger detection from spec.md §4.5.
// Ambiguous inputs resolve to true (prefer recall).
func (s *Scorer) Triggered(query string) bool {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return false
	}
	if isSingleEmoji(trimmed) || isOneWordAck(trimmed) {
		return false
	}

	lowered := strings.ToLower(trimmed)
	for _, t := range positiveTriggers {
		if strings.Contains(lowered, t) {
			return true
		}
	}
	for _, a := range antiTriggers {
		if lowered == a {
			return false
		}
	}
	if pastTenseRe.MatchString(lowered) {
		return true
	}
	// Ambiguous: prefer recall.
	return true
}

var decisionMarkers = []string{
	"decided", "we agreed", "the rule is", "always", "never", "must",
	"should always", "should never", "policy is", "karar verdik", "kural",
	"her zaman", "asla",
}

var imperativeMarkers = []string{
	"must ", "always ", "never ", "do not ", "don't ", "please always",
	"her zaman ", "asla ", "mutlaka ",
}

// ImportanceInput carries the signals Importance needs beyond raw text.
type ImportanceInput struct {
	Text      string
	IsQAPair  bool
	Source    string // "cron" marks automated/cron-origin text
}

// Importance implements the write-time importance scorer from spec.md §4.5.
func (s *Scorer) Importance(in ImportanceInput) float64 {
	lowered := strings.ToLower(in.Text)
	score := 0.3 // base

	for _, d := range decisionMarkers {
		if strings.Contains(lowered, d) {
			score += 0.25
			break
		}
	}
	for _, m := range imperativeMarkers {
		if strings.Contains(lowered, m) {
			score += 0.2
			break
		}
	}

	// Length-and-density signal: longer, information-dense text scores
	// somewhat higher, saturating quickly so spammy long text doesn't
	// dominate.
	words := strings.Fields(in.Text)
	density := float64(len(words)) / 40.0
	if density > 0.2 {
		density = 0.2
	}
	score += density

	if in.IsQAPair {
		score += 0.1
	}

	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}

	if strings.EqualFold(in.Source, "cron") && score > 0.4 {
		score = 0.4
	}

	return score
}
