package topic

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Unclassified is the label returned when the title is empty or no keyword
// matches.
const Unclassified = "Не определена"

// Rule associates one topic label with its keyword stems.
// Keywords are matched case-insensitively as whole words.
type Rule struct {
	// Topic is the label assigned when any keyword matches.
	Topic string `yaml:"topic"`

	// Keywords are lowercase stems checked in order.
	Keywords []string `yaml:"keywords"`
}

// DefaultRules returns the built-in topic rules in their declaration order.
// The order is part of the contract: ties between topics are broken by
// whichever rule is declared first.
func DefaultRules() []Rule {
	return []Rule{
		{
			Topic: "Криптовалюты/Финансы",
			Keywords: []string{
				"крипт", "crypto", "p2p", "трейд", "инвест", "финанс",
				"binance", "бинанс", "trade", "invest", "finance",
				"nft", "нфт", "usdt", "btc", "eth",
			},
		},
		{
			Topic: "Новости/Медиа",
			Keywords: []string{
				"новост", "news", "сми", "медиа", "media", "журнал",
			},
		},
		{
			Topic: "Технологии/IT",
			Keywords: []string{
				"tech", "техно", "it", "айти", "разработ", "программ",
				"dev", "код", "code",
			},
		},
		{
			Topic: "Маркетинг/Бизнес",
			Keywords: []string{
				"маркет", "бизнес", "business", "реклам", "пиар",
				"pr", "продаж", "sale",
			},
		},
		{
			Topic: "Образование",
			Keywords: []string{
				"образ", "обучен", "курс", "урок", "школа",
				"school", "educat",
			},
		},
	}
}

// matcher is one compiled keyword check.
type matcher struct {
	// re is the whole-word matcher, nil when compilation failed and the
	// keyword degraded to substring containment.
	re *regexp.Regexp

	// keyword is the lowercase stem, used for the substring fallback.
	keyword string
}

// compiledRule is a Rule with its keywords compiled.
type compiledRule struct {
	topic    string
	matchers []matcher
}

// Classifier maps free-text titles to topic labels.
type Classifier struct {
	rules []compiledRule
}

// New compiles the given rules into a Classifier.
// A nil or empty rule set falls back to DefaultRules. Compilation never
// fails: a keyword whose whole-word pattern does not compile degrades to
// plain substring containment for that keyword only.
func New(rules []Rule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules()
	}

	c := &Classifier{rules: make([]compiledRule, 0, len(rules))}
	for _, rule := range rules {
		cr := compiledRule{
			topic:    rule.Topic,
			matchers: make([]matcher, 0, len(rule.Keywords)),
		}
		for _, kw := range rule.Keywords {
			kw = strings.ToLower(kw)
			cr.matchers = append(cr.matchers, compile(kw))
		}
		c.rules = append(c.rules, cr)
	}

	return c
}

// wordBoundary matches a position that is not inside a word. regexp's \b is
// ASCII-only and never fires next to Cyrillic letters, so the boundary is
// spelled out with Unicode classes instead.
const wordBoundary = `[^\p{L}\p{N}_]`

// compile builds the whole-word matcher for one keyword.
func compile(keyword string) matcher {
	re, err := regexp.Compile(`(?i)(?:^|` + wordBoundary + `)` + regexp.QuoteMeta(keyword) + `(?:$|` + wordBoundary + `)`)
	if err != nil {
		// Degrade to substring containment; never drop the keyword.
		return matcher{keyword: keyword}
	}
	return matcher{re: re, keyword: keyword}
}

// Classify returns the topic label for a title.
// It returns Unclassified when the title is empty or no keyword matches.
func (c *Classifier) Classify(title string) string {
	if title == "" {
		return Unclassified
	}

	// Normalize before matching: titles are user-generated mixed
	// Cyrillic/Latin text and may arrive in decomposed form.
	normalized := strings.ToLower(norm.NFC.String(title))

	for _, rule := range c.rules {
		for _, m := range rule.matchers {
			if m.re != nil {
				if m.re.MatchString(normalized) {
					return rule.topic
				}
				continue
			}
			if strings.Contains(normalized, m.keyword) {
				return rule.topic
			}
		}
	}

	return Unclassified
}

// Topics returns the topic labels in declaration order.
func (c *Classifier) Topics() []string {
	topics := make([]string, 0, len(c.rules))
	for _, rule := range c.rules {
		topics = append(topics, rule.topic)
	}
	return topics
}
