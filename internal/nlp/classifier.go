package nlp

import "time"

// Classifier evaluates an ordered rule list against message text.
// It is pure and safe for concurrent use.
type Classifier struct {
	rules []Rule
	now   func() time.Time
}

// NewClassifier creates a classifier over the given rules, evaluated in
// slice order. Passing nil uses DefaultRules.
func NewClassifier(rules []Rule) *Classifier {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Classifier{rules: rules, now: time.Now}
}

// Classify determines the single intent of a message. It is total: text that
// matches no rule yields IntentUnknown carrying the original text, and an
// add_task match with an empty description yields IntentClarifyAddTask.
func (c *Classifier) Classify(text string) Result {
	now := c.now()

	for _, rule := range c.rules {
		m := rule.Pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}

		groups := namedGroups(rule.Pattern.SubexpNames(), m)
		entities, ok := rule.extract(groups, text, now)
		if !ok {
			continue
		}

		if rule.Intent == IntentAddTask && entities.Description == "" {
			return Result{Intent: IntentClarifyAddTask}
		}

		return Result{Intent: rule.Intent, Entities: entities}
	}

	return Result{
		Intent:   IntentUnknown,
		Entities: Entities{OriginalText: text},
	}
}

// namedGroups maps subexpression names to their captured text. Unmatched
// optional groups map to "".
func namedGroups(names []string, match []string) map[string]string {
	groups := make(map[string]string, len(names))
	for i, name := range names {
		if name == "" || i >= len(match) {
			continue
		}
		groups[name] = match[i]
	}
	return groups
}
