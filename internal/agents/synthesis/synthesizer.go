package synthesis

import (
	"context"
	"time"
	"unicode/utf8"

	"finsight/internal/adapters/ai"
	"finsight/internal/adapters/config"
	"finsight/internal/domain/news"
	"finsight/internal/domain/profile"
	"finsight/internal/domain/report"
	"finsight/internal/metrics"
	"finsight/internal/tools"
	"finsight/pkg/errors"
	"finsight/pkg/logger"
	"finsight/pkg/templates"
)

const (
	profileTemplate = "prompts/profile"
	truncationMark  = "\n[input truncated]"
)

// Slice is the part of a run's state the synthesis step sees
type Slice struct {
	Kind     report.Kind
	View     any // AnalysisView or NewsView
	Warnings []string
	Date     time.Time
}

// Input is the argument of the synthesis tool
type Input struct {
	Profile *profile.Profile
	Slice   Slice
}

// Result is the synthesized report text
type Result struct {
	Text        string `json:"text"`
	Words       int    `json:"words"`
	Limit       int    `json:"limit"`
	Truncated   bool   `json:"truncated"`
	RawWords    int    `json:"raw_words"`
	PromptChars int    `json:"prompt_chars"`
}

// Synthesizer turns a run slice and an agent profile into a bounded completion
type Synthesizer struct {
	completer ai.Completer
	templates *templates.Registry
	cfg       config.WorkflowConfig
	log       *logger.Logger
}

// New creates a synthesizer. A nil registry uses the embedded templates.
func New(completer ai.Completer, registry *templates.Registry, cfg config.WorkflowConfig) *Synthesizer {
	if registry == nil {
		registry = templates.Get()
	}
	return &Synthesizer{
		completer: completer,
		templates: registry,
		cfg:       cfg,
		log:       logger.Get().With("component", "synthesis"),
	}
}

// Tool exposes Synthesize through the tools.Tool interface
func (s *Synthesizer) Tool() tools.Tool {
	return tools.Typed(tools.SynthesisTool,
		"Portfolio diagnosis written from the run state under the agent profile",
		func(ctx context.Context, in Input) (*Result, error) {
			return s.Synthesize(ctx, in.Profile, in.Slice)
		})
}

// Prompt renders the prompt for a slice. The profile header and output constraints are never cut;
// the data section is truncated to fit the configured character budget.
func (s *Synthesizer) Prompt(p *profile.Profile, slice Slice) (string, error) {
	if p == nil {
		return "", errors.Wrap(errors.ErrInvalidInput, "synthesis requires a profile")
	}
	if !slice.Kind.Valid() {
		return "", errors.Wrapf(errors.ErrInvalidInput, "unknown workflow kind %q", slice.Kind)
	}

	header, err := s.templates.Render(profileTemplate, map[string]any{
		"Profile":   p,
		"WordLimit": p.WordLimit(s.cfg.DefaultWordLimit),
	})
	if err != nil {
		return "", errors.Join(errors.ErrSynthesis, err)
	}

	view := slice.View
	if nv, ok := view.(NewsView); ok {
		view = s.boundNews(nv)
	}
	if slice.Date.IsZero() {
		slice.Date = time.Now().UTC()
	}

	body, err := s.templates.Render("prompts/"+slice.Kind.String(), map[string]any{
		"View":     view,
		"Warnings": slice.Warnings,
		"Date":     slice.Date,
	})
	if err != nil {
		return "", errors.Join(errors.ErrSynthesis, err)
	}

	budget := s.cfg.PromptCharBudget - utf8.RuneCountInString(header) - 2
	if budget > 0 && utf8.RuneCountInString(body) > budget {
		keep := budget - utf8.RuneCountInString(truncationMark)
		if keep < 0 {
			keep = 0
		}
		body = string([]rune(body)[:keep]) + truncationMark
		s.log.Warn("prompt exceeded character budget",
			"workflow", slice.Kind, "budget", s.cfg.PromptCharBudget)
	}

	return header + "\n\n" + body, nil
}

// Synthesize completes the prompt and enforces plain text within the profile's word limit.
// Transient completion failures are returned as is so the caller may retry them.
func (s *Synthesizer) Synthesize(ctx context.Context, p *profile.Profile, slice Slice) (*Result, error) {
	prompt, err := s.Prompt(p, slice)
	if err != nil {
		return nil, err
	}

	limit := p.WordLimit(s.cfg.DefaultWordLimit)
	text, err := s.completer.Complete(ctx, prompt, limit*2)
	if err != nil {
		if errors.IsTransient(err) || ctx.Err() != nil {
			return nil, errors.Wrap(err, "completion")
		}
		return nil, errors.Join(errors.ErrSynthesis, err)
	}

	plain := StripMarkup(text)
	if plain == "" {
		return nil, errors.Wrap(errors.ErrSynthesis, "completion returned no text")
	}

	rawWords := CountWords(plain)
	limited, truncated := LimitWords(plain, limit)
	if truncated {
		metrics.SynthesisWordLimitViolations.WithLabelValues(p.AgentID).Inc()
		s.log.Warn("completion exceeded word limit",
			"agent_id", p.AgentID, "words", rawWords, "limit", limit)
	}

	return &Result{
		Text:        limited,
		Words:       CountWords(limited),
		Limit:       limit,
		Truncated:   truncated,
		RawWords:    rawWords,
		PromptChars: utf8.RuneCountInString(prompt),
	}, nil
}

// boundNews applies the per-asset article cap and headline/description limits on a copy of the view
func (s *Synthesizer) boundNews(v NewsView) NewsView {
	assets := make([]AssetNews, len(v.Assets))
	for i, a := range v.Assets {
		n := len(a.Articles)
		if s.cfg.ArticlesPerAsset > 0 && n > s.cfg.ArticlesPerAsset {
			n = s.cfg.ArticlesPerAsset
		}
		articles := make([]news.ScoredArticle, n)
		for j := 0; j < n; j++ {
			art := a.Articles[j]
			art.Title = templates.Truncate(s.cfg.HeadlineCharLimit, art.Title)
			art.Description = templates.Truncate(s.cfg.DescriptionCharLimit, art.Description)
			articles[j] = art
		}
		a.Articles = articles
		assets[i] = a
	}
	v.Assets = assets
	return v
}
