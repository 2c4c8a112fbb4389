// Package classify implements the ordered-rule content and intent classifier
// that gates the retrieval pipeline.
package classify

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/poshan-ai/poshan/internal/domain/verdict"
	"github.com/poshan-ai/poshan/internal/normalize"
)

// Classifier evaluates the ordered rule list against three variants of the
// message: raw (lowercased), normalized, and hyper-normalized. Obfuscation
// and genuine meal-plan phrasing can coexist, so intent rules run against all
// three.
type Classifier struct {
	rules       []Rule
	logNearMiss bool
	logger      *zap.Logger
}

// New creates a classifier over an immutable rule list.
func New(rules []Rule, logger *zap.Logger) *Classifier {
	return &Classifier{rules: rules, logNearMiss: true, logger: logger}
}

// WithNearMissLogging toggles info-level logging of contextual meal-plan
// near misses. On by default; the logs feed rule-set review.
func (c *Classifier) WithNearMissLogging(enabled bool) *Classifier {
	c.logNearMiss = enabled
	return c
}

// Classify returns the verdict for a raw user message.
//
// Failure semantics: the classifier fails open. An internal error logs and
// yields a safe, non-short-circuiting verdict so legitimate traffic is never
// silently blocked.
func (c *Classifier) Classify(raw string) (v verdict.Verdict) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("classifier panicked, failing open", zap.Any("panic", r))
			v = verdict.Verdict{Category: verdict.Safe, Severity: verdict.SeverityNone}
		}
	}()

	rawLower := strings.ToLower(strings.TrimSpace(raw))
	normalized := normalize.Normalize(raw)
	hyper := normalize.Hyper(raw)
	variants := []string{rawLower, normalized, hyper}

	severity := verdict.SeverityNone
	severityCategory := verdict.Safe
	severityRule := ""
	intentRule := ""

	for _, rule := range c.rules {
		switch rule.Category {
		case verdict.UnsupportedLanguage, verdict.NSFW:
			// Short-circuiting categories match against raw and normalized
			// independently so an obfuscated term is still caught.
			if rule.Pattern.MatchString(rawLower) || rule.Pattern.MatchString(normalized) {
				return verdict.Verdict{
					Category:           rule.Category,
					MatchedRule:        rule.Name,
					Severity:           rule.Severity,
					ShouldShortCircuit: true,
				}
			}

		case verdict.Dangerous, verdict.MedicationAbuse:
			if matchAny(rule.Pattern, variants) && severityRank(rule.Severity) > severityRank(severity) {
				severity = rule.Severity
				severityCategory = rule.Category
				severityRule = rule.Name
			}

		case verdict.MealPlanIntent:
			if intentRule == "" && matchAny(rule.Pattern, variants) {
				intentRule = rule.Name
			}
		}
	}

	if intentRule == "" {
		intentRule = c.contextualIntent(variants)
	}

	if intentRule != "" {
		return verdict.Verdict{
			Category:           verdict.MealPlanIntent,
			MatchedRule:        intentRule,
			Severity:           severity,
			ShouldShortCircuit: true,
		}
	}

	if severity != verdict.SeverityNone {
		return verdict.Verdict{
			Category:    severityCategory,
			MatchedRule: severityRule,
			Severity:    severity,
		}
	}

	return verdict.Verdict{Category: verdict.Safe, Severity: verdict.SeverityNone}
}

// contextualIntent applies the heuristic: a food mention plus two or more
// distinct time-of-day markers reads as a day-plan request. A single marker
// is a near miss, logged for rule-set review rather than classified.
func (c *Classifier) contextualIntent(variants []string) string {
	for _, text := range variants {
		if !foodWords.MatchString(text) {
			continue
		}
		markers := 0
		for _, tm := range timeMarkers {
			if tm.MatchString(text) {
				markers++
			}
		}
		if markers >= 2 {
			return "contextual-time-markers"
		}
		if markers == 1 && c.logNearMiss {
			c.logger.Info("near-miss meal-plan classification",
				zap.String("text", text),
				zap.Int("time_markers", markers),
			)
		}
	}
	return ""
}

func matchAny(p *regexp.Regexp, variants []string) bool {
	for _, v := range variants {
		if p.MatchString(v) {
			return true
		}
	}
	return false
}

func severityRank(s verdict.Severity) int {
	switch s {
	case verdict.SeverityCritical:
		return 2
	case verdict.SeverityHigh:
		return 1
	default:
		return 0
	}
}
