package classify

import (
	"regexp"

	"github.com/akolanti/FlashRAG/internal/domain/cardModel"
)

// Rule is one entry of the declarative fallback table. Strength plays the
// role a probability plays on the model path: it is what ends up as the
// classification score when the rule decides.
type Rule struct {
	Name     string
	Pattern  *regexp.Regexp
	Label    cardModel.FlashcardType
	Strength float64
}

// DefaultRules is evaluated in order; the first matching pattern is the
// rule verdict for the record.
var DefaultRules = []Rule{
	{
		Name:     "blank_marker",
		Pattern:  regexp.MustCompile(`_{3,}`),
		Label:    cardModel.FillInBlank,
		Strength: 0.95,
	},
	{
		Name:     "true_false_prompt",
		Pattern:  regexp.MustCompile(`(?i)\btrue\s+or\s+false\b|(?m)^\s*T\s*/\s*F\b`),
		Label:    cardModel.TrueFalse,
		Strength: 0.95,
	},
	{
		Name:     "lettered_options",
		Pattern:  regexp.MustCompile(`(?s)\bA[.)]\s.*\bB[.)]\s.*\bC[.)]\s`),
		Label:    cardModel.MultipleChoice,
		Strength: 0.9,
	},
	{
		Name:     "numbered_sequence",
		Pattern:  regexp.MustCompile(`(?s)\b1[.)]\s.*\b2[.)]\s.*\b3[.)]\s`),
		Label:    cardModel.ListStages,
		Strength: 0.85,
	},
	{
		Name:     "example_phrase",
		Pattern:  regexp.MustCompile(`(?i)\bfor example\b|\be\.g\.|\ban example of\b`),
		Label:    cardModel.ExampleToConcept,
		Strength: 0.6,
	},
	{
		Name:     "question_mark",
		Pattern:  regexp.MustCompile(`(?m)\?\s*$`),
		Label:    cardModel.QuestionAnswer,
		Strength: 0.55,
	},
}

// EvaluateRules walks the table in priority order and returns the first
// match, or nil when no pattern fires. The rule path is a pure function of
// the input text.
func EvaluateRules(rules []Rule, text string) *Rule {
	for i := range rules {
		if rules[i].Pattern.MatchString(text) {
			return &rules[i]
		}
	}
	return nil
}

// DefaultCues bias the zero-shot model toward a label the rules already
// believe in; original export decks respond well to a short prefix.
var DefaultCues = map[cardModel.FlashcardType]string{
	cardModel.FillInBlank:    "Fill in the blank:",
	cardModel.TrueFalse:      "True or false question:",
	cardModel.MultipleChoice: "Multiple choice question:",
	cardModel.ListStages:     "Ordered stages:",
}
