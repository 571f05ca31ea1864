// Package generate turns a free-form user prompt into learning content
// grounded in one ingested document: parse intent, retrieve context,
// generate with the LLM, then judge every item for faithfulness.
package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"edugen/internal/retrieval"
)

var (
	ErrNoContent   = errors.New("no content found for ingestion")
	ErrUnknownMode = errors.New("unknown generation mode")
)

// Generation modes recognized by the intent parser.
const (
	ModeMCQ               = "mcq"
	ModeFillBlank         = "fill_blank"
	ModeSummary           = "summary"
	ModeSummaryPerSection = "summary_per_section"
)

const (
	intentTemperature     = 0.0
	generationTemperature = 0.2
	judgeTemperature      = 0.0

	// The judge sees at most this much context; enough to verify grounding
	// without blowing up the prompt.
	judgeContextLimit = 4000
)

type Intent struct {
	Mode        string `json:"mode"`
	Topic       string `json:"topic,omitempty"`
	N           int    `json:"n"`
	Difficulty  string `json:"difficulty"`
	GlobalScope bool   `json:"global_scope"`
}

// Item is one generated piece of content. MCQs fill question/options,
// fill-blanks fill question/correct, summaries fill summary/section; the
// zero-valued fields are omitted on the wire.
type Item struct {
	ID          string            `json:"id"`
	Question    string            `json:"question,omitempty"`
	Options     map[string]string `json:"options,omitempty"`
	Correct     string            `json:"correct,omitempty"`
	Explanation string            `json:"explanation,omitempty"`
	Difficulty  string            `json:"difficulty,omitempty"`
	Summary     string            `json:"summary,omitempty"`
	Section     string            `json:"section,omitempty"`
	Evaluator   *Evaluation       `json:"evaluator,omitempty"`
}

// Evaluation is the RAG-triad judgment for one item.
type Evaluation struct {
	ContextRelevanceScore float64  `json:"context_relevance_score"`
	GroundednessScore     float64  `json:"groundedness_score"`
	AnswerRelevanceScore  float64  `json:"answer_relevance_score"`
	QualityScore          float64  `json:"quality_score"`
	IsSupported           bool     `json:"is_supported"`
	Reasoning             string   `json:"reasoning,omitempty"`
	Issues                []string `json:"issues"`
}

type Metadata struct {
	ParsedIntent     Intent `json:"parsed_intent"`
	RetrievalTimeMs  int64  `json:"retrieval_time_ms"`
	GenerationTimeMs int64  `json:"generation_time_ms"`
	Model            string `json:"model"`
}

type Response struct {
	RequestID                string   `json:"request_id"`
	GeneratedLearningContent []Item   `json:"generated_learning_content"`
	Metadata                 Metadata `json:"metadata"`
}

type LLM interface {
	Generate(ctx context.Context, prompt string, temperature float32) (string, error)
}

type Retriever interface {
	Retrieve(ctx context.Context, ingestionID, query, topic string, topK int) ([]string, []retrieval.ChunkMeta, error)
}

type Service struct {
	llm       LLM
	retriever Retriever
	topK      int
	model     string
}

func NewService(llm LLM, retriever Retriever, topK int, model string) *Service {
	return &Service{llm: llm, retriever: retriever, topK: topK, model: model}
}

// ParseIntent extracts a structured generation request from free-form text.
// Any model or parse failure falls back to a global MCQ intent; parsing
// never fails the request.
func (s *Service) ParseIntent(ctx context.Context, userPrompt string) Intent {
	slog.InfoContext(ctx, "parsing intent", "prompt", userPrompt)

	intent := Intent{Mode: ModeMCQ, GlobalScope: true}

	raw, err := s.llm.Generate(ctx, fillPrompt(intentParserPrompt, "user_prompt", userPrompt), intentTemperature)
	if err != nil {
		slog.WarnContext(ctx, "intent parsing failed, using fallback", "error", err)
	} else {
		var parsed struct {
			Mode        string  `json:"mode"`
			Topic       *string `json:"topic"`
			N           *int    `json:"n"`
			Difficulty  *string `json:"difficulty"`
			GlobalScope bool    `json:"global_scope"`
		}
		if err := parseModelJSON(raw, &parsed); err != nil {
			slog.WarnContext(ctx, "intent json invalid, using fallback", "error", err)
		} else {
			intent.Mode = parsed.Mode
			intent.GlobalScope = parsed.GlobalScope
			if parsed.Topic != nil {
				intent.Topic = *parsed.Topic
			}
			if parsed.N != nil {
				intent.N = *parsed.N
			}
			if parsed.Difficulty != nil {
				intent.Difficulty = *parsed.Difficulty
			}
		}
	}

	if intent.N == 0 {
		if intent.Topic != "" {
			intent.N = 5
		} else {
			intent.N = 1
		}
	}
	if intent.Difficulty == "" {
		intent.Difficulty = "mixed"
	}

	slog.InfoContext(ctx, "parsed intent",
		"mode", intent.Mode, "topic", intent.Topic, "n", intent.N, "difficulty", intent.Difficulty)
	return intent
}

// Generate runs the full funnel for one request.
func (s *Service) Generate(ctx context.Context, ingestionID, userPrompt string) (*Response, error) {
	requestID := uuid.New().String()
	intent := s.ParseIntent(ctx, userPrompt)

	retrievalStart := time.Now()
	chunks, meta, err := s.retriever.Retrieve(ctx, ingestionID, userPrompt, intent.Topic, s.topK)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}
	retrievalMs := time.Since(retrievalStart).Milliseconds()
	slog.InfoContext(ctx, "context retrieved", "chunks", len(chunks), "duration_ms", retrievalMs)

	if len(chunks) == 0 {
		return nil, ErrNoContent
	}

	generationStart := time.Now()
	var items []Item
	switch intent.Mode {
	case ModeMCQ:
		items, err = s.generateQuestions(ctx, mcqGeneratorPrompt, chunks, meta, intent)
	case ModeFillBlank:
		items, err = s.generateQuestions(ctx, fillBlankPrompt, chunks, meta, intent)
	case ModeSummary, ModeSummaryPerSection:
		items, err = s.generateSummaries(ctx, chunks, meta, intent)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMode, intent.Mode)
	}
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}
	generationMs := time.Since(generationStart).Milliseconds()
	slog.InfoContext(ctx, "content generated", "items", len(items), "duration_ms", generationMs)

	if err := s.evaluate(ctx, items, chunks, intent.Topic); err != nil {
		return nil, fmt.Errorf("evaluate content: %w", err)
	}

	return &Response{
		RequestID:                requestID,
		GeneratedLearningContent: items,
		Metadata: Metadata{
			ParsedIntent:     intent,
			RetrievalTimeMs:  retrievalMs,
			GenerationTimeMs: generationMs,
			Model:            s.model,
		},
	}, nil
}

func (s *Service) generateQuestions(ctx context.Context, template string, chunks []string, meta []retrieval.ChunkMeta, intent Intent) ([]Item, error) {
	prompt := fillPrompt(template,
		"retrieved_chunks", formatContext(chunks, meta),
		"num_questions", strconv.Itoa(intent.N),
		"difficulty", intent.Difficulty,
	)

	raw, err := s.llm.Generate(ctx, prompt, generationTemperature)
	if err != nil {
		return nil, err
	}

	items, err := parseItemList(raw)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].ID = uuid.New().String()
	}
	return items, nil
}

func (s *Service) generateSummaries(ctx context.Context, chunks []string, meta []retrieval.ChunkMeta, intent Intent) ([]Item, error) {
	type group struct {
		title  string
		chunks []string
	}
	var groups []group

	if intent.Mode == ModeSummaryPerSection {
		index := map[string]int{}
		for i, chunk := range chunks {
			title := "Unknown"
			if i < len(meta) && meta[i].SectionTitle != "" {
				title = meta[i].SectionTitle
			}
			pos, ok := index[title]
			if !ok {
				pos = len(groups)
				index[title] = pos
				groups = append(groups, group{title: title})
			}
			groups[pos].chunks = append(groups[pos].chunks, chunk)
		}
	} else {
		title := intent.Topic
		if title == "" {
			title = "Document"
		}
		groups = []group{{title: title, chunks: chunks}}
	}

	var items []Item
	for _, g := range groups {
		prompt := fillPrompt(summaryPrompt,
			"section_text", strings.Join(g.chunks, "\n\n"),
			"section_title", g.title,
		)
		raw, err := s.llm.Generate(ctx, prompt, generationTemperature)
		if err != nil {
			return nil, err
		}
		var item Item
		if err := parseModelJSON(raw, &item); err != nil {
			return nil, err
		}
		item.ID = uuid.New().String()
		items = append(items, item)
	}
	return items, nil
}

// evaluate judges all items in one batched call and attaches the results.
// Missing evaluations are padded with a zero score so every item carries a
// verdict.
func (s *Service) evaluate(ctx context.Context, items []Item, chunks []string, topic string) error {
	if len(items) == 0 {
		return nil
	}
	if topic == "" {
		topic = "the document"
	}

	questionsJSON, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}

	contextText := strings.Join(chunks, "\n\n")
	if len(contextText) > judgeContextLimit {
		contextText = contextText[:judgeContextLimit]
	}

	prompt := fillPrompt(ragTriadPrompt,
		"context", contextText,
		"topic", topic,
		"questions_json", string(questionsJSON),
	)

	raw, err := s.llm.Generate(ctx, prompt, judgeTemperature)
	if err != nil {
		return err
	}

	var evals []Evaluation
	if err := parseModelJSON(raw, &evals); err != nil {
		// A single object instead of an array still counts as one verdict.
		var single Evaluation
		if err2 := parseModelJSON(raw, &single); err2 != nil {
			return err
		}
		evals = []Evaluation{single}
	}

	for len(evals) < len(items) {
		evals = append(evals, Evaluation{
			QualityScore: 0.0,
			IsSupported:  false,
			Issues:       []string{"evaluation_missing"},
		})
	}
	for i := range items {
		ev := evals[i]
		items[i].Evaluator = &ev
	}
	return nil
}

// formatContext prefixes each chunk with its provenance so the model can
// cite sections.
func formatContext(chunks []string, meta []retrieval.ChunkMeta) string {
	parts := make([]string, len(chunks))
	for i, chunk := range chunks {
		page := "unknown"
		section := "unknown"
		if i < len(meta) {
			if meta[i].PageStart > 0 {
				page = fmt.Sprintf("%d-%d", meta[i].PageStart, meta[i].PageEnd)
			}
			if meta[i].SectionTitle != "" {
				section = meta[i].SectionTitle
			}
		}
		parts[i] = fmt.Sprintf("[Pages %s, Section: %s]\n%s", page, section, chunk)
	}
	return strings.Join(parts, "\n\n")
}

// parseModelJSON decodes model output after stripping markdown code fences.
func parseModelJSON(raw string, v interface{}) error {
	content := strings.TrimSpace(raw)
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
	}
	content = strings.TrimSpace(strings.Trim(content, "`"))
	return json.Unmarshal([]byte(content), v)
}

// parseItemList accepts either a bare JSON array or an object wrapping the
// array under "questions".
func parseItemList(raw string) ([]Item, error) {
	var items []Item
	if err := parseModelJSON(raw, &items); err == nil {
		return items, nil
	}
	var wrapped struct {
		Questions []Item `json:"questions"`
	}
	if err := parseModelJSON(raw, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Questions, nil
}
