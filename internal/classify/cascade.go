package classify

import (
	"context"

	"github.com/akolanti/FlashRAG/internal/config"
	"github.com/akolanti/FlashRAG/internal/domain/cardModel"
	"github.com/akolanti/FlashRAG/pkg/logger_i"
)

type CueMode string

const (
	CuesNever      CueMode = "never"
	CuesStrongOnly CueMode = "strong_only"
	CuesAlways     CueMode = "always"
)

type CascadeOptions struct {
	// ConfidenceThreshold is inclusive: a model score exactly at the
	// threshold accepts the model label.
	ConfidenceThreshold float64
	StrongThreshold     float64
	BatchSize           int
	UseCues             CueMode
	Rules               []Rule
	Cues                map[cardModel.FlashcardType]string
}

type Cascade struct {
	capability Capability
	opts       CascadeOptions
	logger     *logger_i.Logger
}

// NewCascade wires the two-tier decision procedure. capability may be nil;
// the cascade then runs rule-only.
func NewCascade(capability Capability, opts CascadeOptions) *Cascade {
	if opts.ConfidenceThreshold == 0 {
		opts.ConfidenceThreshold = config.ConfidenceThreshold
	}
	if opts.StrongThreshold == 0 {
		opts.StrongThreshold = config.StrongRuleThreshold
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = config.ClassifierBatchSize
	}
	if opts.UseCues == "" {
		opts.UseCues = CuesStrongOnly
	}
	if opts.Rules == nil {
		opts.Rules = DefaultRules
	}
	if opts.Cues == nil {
		opts.Cues = DefaultCues
	}
	return &Cascade{
		capability: capability,
		opts:       opts,
		logger:     logger_i.NewLogger("classification_cascade"),
	}
}

// ClassifyAll assigns exactly one label per record text, preserving input
// order. Records are grouped into fixed-size batches for the capability; a
// failed batch degrades only itself to the rule path.
func (c *Cascade) ClassifyAll(ctx context.Context, texts []string) []Result {
	results := make([]Result, len(texts))

	ruleHits := make([]*Rule, len(texts))
	for i, text := range texts {
		ruleHits[i] = EvaluateRules(c.opts.Rules, text)
	}

	modelUp := c.capability != nil && c.capability.Available()
	if !modelUp {
		c.logger.Debug("model capability absent, rule-only classification", "records", len(texts))
	}

	for start := 0; start < len(texts); start += c.opts.BatchSize {
		end := min(start+c.opts.BatchSize, len(texts))

		var predictions []Prediction
		if modelUp {
			batch := make([]string, end-start)
			for i := start; i < end; i++ {
				batch[i-start] = c.cuedText(texts[i], ruleHits[i])
			}
			preds, err := c.capability.Classify(ctx, batch, cardModel.CandidateLabels)
			if err != nil || len(preds) != len(batch) {
				c.logger.Warn("classification batch degraded to rules", "error", err, "batchStart", start)
			} else {
				predictions = preds
			}
		}

		for i := start; i < end; i++ {
			var model *Prediction
			if predictions != nil {
				model = &predictions[i-start]
			}
			results[i] = c.decide(model, ruleHits[i])
		}
	}
	return results
}

// ClassifyOne is the single-record convenience used by tests and the query
// side of the service.
func (c *Cascade) ClassifyOne(ctx context.Context, text string) Result {
	return c.ClassifyAll(ctx, []string{text})[0]
}

// decide applies the override policy: a strong rule beats a disagreeing
// model, a below-threshold model yields to any rule, and the default label
// only appears when both tiers stay silent.
func (c *Cascade) decide(model *Prediction, rule *Rule) Result {
	if rule != nil && rule.Strength >= c.opts.StrongThreshold {
		if model != nil && model.Label != rule.Label {
			return Result{Label: rule.Label, Score: rule.Strength, Source: cardModel.SourceOverride}
		}
		return Result{Label: rule.Label, Score: rule.Strength, Source: cardModel.SourceRule}
	}

	if model != nil {
		if model.Score >= c.opts.ConfidenceThreshold {
			return Result{Label: model.Label, Score: model.Score, Source: cardModel.SourceModel}
		}
		if rule != nil {
			return Result{Label: rule.Label, Score: rule.Strength, Source: cardModel.SourceRule}
		}
		// low confidence with no rule to fall back on still beats "other"
		return Result{Label: model.Label, Score: model.Score, Source: cardModel.SourceModel}
	}

	if rule != nil {
		return Result{Label: rule.Label, Score: rule.Strength, Source: cardModel.SourceRule}
	}
	return Result{Label: cardModel.Other, Score: 0, Source: cardModel.SourceDefault}
}

func (c *Cascade) cuedText(text string, rule *Rule) string {
	if rule == nil || c.opts.UseCues == CuesNever {
		return text
	}
	if c.opts.UseCues == CuesStrongOnly && rule.Strength < c.opts.StrongThreshold {
		return text
	}
	cue, ok := c.opts.Cues[rule.Label]
	if !ok {
		return text
	}
	return cue + " " + text
}
