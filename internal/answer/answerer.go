package answer

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/applyhawk/applyhawk/internal/llm"
	"github.com/applyhawk/applyhawk/internal/model"
)

// Invoker is the LLM call surface the answerer depends on.
type Invoker interface {
	Invoke(ctx context.Context, messages []llm.ChatMessage) (llm.ParsedReply, error)
}

// AnswerCache remembers previously answered questions.
type AnswerCache interface {
	Get(question string) (string, bool, error)
	Put(question, answer string) error
}

// Suitability is the job-fit verdict for one job description.
type Suitability struct {
	Score     int
	Reasoning string
	Suitable  bool
}

// resume sections the classifier may pick. Cover letter is handled
// separately since it draws on the whole resume.
var knownSections = []string{
	"personal_information",
	"self_identification",
	"legal_authorization",
	"work_preferences",
	"education_details",
	"experience_details",
	"projects",
	"availability",
	"salary_expectations",
	"certifications",
	"languages",
	"interests",
}

var (
	sectionRe = regexp.MustCompile(`(?i)(Personal Information|Self Identification|Legal Authorization|` +
		`Work Preferences|Education Details|Experience Details|Projects|Availability|` +
		`Salary Expectations|Certifications|Languages|Interests|Cover Letter)`)
	scoreRe     = regexp.MustCompile(`(?i)Score:\s*(\d+)`)
	reasoningRe = regexp.MustCompile(`(?is)Reasoning:\s*(.+)`)
	numberRe    = regexp.MustCompile(`\d+`)
)

// Answerer produces application-form answers, summaries and fit scores for a
// single applicant, driving every model call through the retrying invoker.
type Answerer struct {
	inv      Invoker
	resume   *model.Resume
	cache    AnswerCache
	minScore int
	logger   *slog.Logger
}

// NewAnswerer wires an answerer for the given resume. cache may be a
// NopStore when persistence is not wanted.
func NewAnswerer(inv Invoker, resume *model.Resume, cache AnswerCache, minScore int, logger *slog.Logger) *Answerer {
	return &Answerer{
		inv:      inv,
		resume:   resume,
		cache:    cache,
		minScore: minScore,
		logger:   logger,
	}
}

// ask renders the named prompt and runs one LLM call, returning cleaned text.
func (a *Answerer) ask(ctx context.Context, promptName string, data any) (string, error) {
	prompt, err := renderPrompt(promptName, data)
	if err != nil {
		return "", err
	}
	reply, err := a.inv.Invoke(ctx, []llm.ChatMessage{llm.UserMessage(prompt)})
	if err != nil {
		return "", err
	}
	return cleanOutput(reply.Content), nil
}

// Summarize condenses a job description to its concrete requirements.
func (a *Answerer) Summarize(ctx context.Context, description string) (string, error) {
	out, err := a.ask(ctx, "summarize.md", struct{ Text string }{description})
	if err != nil {
		return "", fmt.Errorf("summarize job description: %w", err)
	}
	return out, nil
}

// AnswerQuestion answers a free-text application-form question. The question
// is first classified into a resume section; the answer is then drawn from
// that section alone. Cached answers short-circuit the model entirely.
func (a *Answerer) AnswerQuestion(ctx context.Context, question string, job model.Job) (string, error) {
	if cached, found, err := a.cache.Get(question); err != nil {
		a.logger.Warn("answer cache lookup failed", "error", err)
	} else if found {
		a.logger.Debug("answer cache hit", "question", question)
		return cached, nil
	}

	section, err := a.determineSection(ctx, question)
	if err != nil {
		return "", err
	}

	var out string
	if section == "cover_letter" {
		out, err = a.ask(ctx, "cover_letter.md", struct {
			Resume, JobDescription, Company string
		}{a.fullResume(), job.Description, job.Company})
	} else {
		if !a.resume.HasSection(section) {
			return "", fmt.Errorf("resume has no %s section to answer from", section)
		}
		out, err = a.ask(ctx, "resume_section.md", struct {
			Section, Question string
		}{a.resume.Section(section), question})
	}
	if err != nil {
		return "", fmt.Errorf("answer question: %w", err)
	}

	if err := a.cache.Put(question, out); err != nil {
		a.logger.Warn("caching answer failed", "error", err)
	}
	return out, nil
}

// determineSection classifies a question into one of the known resume
// sections.
func (a *Answerer) determineSection(ctx context.Context, question string) (string, error) {
	out, err := a.ask(ctx, "determine_section.md", struct{ Question string }{question})
	if err != nil {
		return "", fmt.Errorf("determine section: %w", err)
	}

	m := sectionRe.FindString(out)
	if m == "" {
		return "", fmt.Errorf("could not extract a section name from %q", out)
	}
	return strings.ReplaceAll(strings.ToLower(m), " ", "_"), nil
}

// AnswerNumeric answers a numeric question (typically years of experience).
// When no number can be extracted from the model output, defaultValue is
// used instead of failing the application.
func (a *Answerer) AnswerNumeric(ctx context.Context, question string, defaultValue int) (string, error) {
	out, err := a.ask(ctx, "numeric.md", struct {
		Education, Experience, Projects, Question string
	}{
		a.resume.Section("education_details"),
		a.resume.Section("experience_details"),
		a.resume.Section("projects"),
		question,
	})
	if err != nil {
		return "", fmt.Errorf("answer numeric question: %w", err)
	}

	if n := numberRe.FindString(out); n != "" {
		return n, nil
	}
	a.logger.Warn("no number in model output, using default",
		"question", question,
		"default", defaultValue,
	)
	return fmt.Sprintf("%d", defaultValue), nil
}

// AnswerFromOptions answers a multiple-choice question, mapping the model's
// output onto the nearest of the given options.
func (a *Answerer) AnswerFromOptions(ctx context.Context, question string, options []string) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("no options to choose from")
	}

	out, err := a.ask(ctx, "options.md", struct {
		Resume, Question string
		Options          []string
	}{a.fullResume(), question, options})
	if err != nil {
		return "", fmt.Errorf("answer options question: %w", err)
	}

	return findBestMatch(out, options), nil
}

// ResumeOrCover decides whether an upload-field phrase refers to a resume or
// a cover letter. Ambiguous output defaults to resume.
func (a *Answerer) ResumeOrCover(ctx context.Context, phrase string) (string, error) {
	out, err := a.ask(ctx, "resume_or_cover.md", struct{ Phrase string }{phrase})
	if err != nil {
		return "", fmt.Errorf("classify upload field: %w", err)
	}

	// "resume" wins when the output mentions both.
	lower := strings.ToLower(out)
	switch {
	case strings.Contains(lower, "resume"):
		return "resume", nil
	case strings.Contains(lower, "cover"):
		return "cover", nil
	default:
		return "resume", nil
	}
}

// SuitabilityScore rates the applicant's fit for a job description. When the
// score cannot be extracted the job is treated as suitable, so a formatting
// hiccup never silently drops an application.
func (a *Answerer) SuitabilityScore(ctx context.Context, description string) (Suitability, error) {
	out, err := a.ask(ctx, "suitability.md", struct {
		Resume, JobDescription string
	}{a.fullResume(), description})
	if err != nil {
		return Suitability{}, fmt.Errorf("score job fit: %w", err)
	}

	scoreMatch := scoreRe.FindStringSubmatch(out)
	if scoreMatch == nil {
		a.logger.Warn("could not extract score from model output, proceeding as suitable")
		return Suitability{Suitable: true}, nil
	}

	var score int
	fmt.Sscanf(scoreMatch[1], "%d", &score)

	reasoning := ""
	if m := reasoningRe.FindStringSubmatch(out); m != nil {
		reasoning = strings.TrimSpace(m[1])
	}

	return Suitability{
		Score:     score,
		Reasoning: reasoning,
		Suitable:  score >= a.minScore,
	}, nil
}

// fullResume joins every section for prompts that need the whole document.
func (a *Answerer) fullResume() string {
	var b strings.Builder
	for _, name := range knownSections {
		if text := a.resume.Section(name); text != "" {
			fmt.Fprintf(&b, "%s:\n%s\n\n", name, text)
		}
	}
	return strings.TrimSpace(b.String())
}

// cleanOutput strips the markdown and placeholder noise local models tend to
// emit.
func cleanOutput(s string) string {
	s = strings.ReplaceAll(s, "*", "")
	s = strings.ReplaceAll(s, "#", "")
	s = strings.ReplaceAll(s, "PLACEHOLDER", "")
	return strings.TrimSpace(s)
}
