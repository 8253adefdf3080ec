package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"firesafety-backend/internal/metrics"
	"firesafety-backend/internal/models"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// Analysis is the structured result of reviewing inspection notes or a photo.
type Analysis struct {
	Analysis   string   `json:"analysis"`
	Severity   string   `json:"severity"`
	Actions    []string `json:"actions"`
	Confidence string   `json:"confidence,omitempty"`
}

// AnalysisService reviews inspection notes and photos. Implementations may
// call a remote model; callers should wrap them with WithFallback.
type AnalysisService interface {
	AnalyzeText(ctx context.Context, notes string, checks map[string]*bool) (*Analysis, error)
	AnalyzeImage(ctx context.Context, image []byte) (*Analysis, error)
}

var ErrAnalysisUnavailable = errors.New("analysis service not configured")

// GeminiAnalyzer calls the Gemini generateContent endpoint.
type GeminiAnalyzer struct {
	client *resty.Client
	model  string
	apiKey string
}

func NewGeminiAnalyzer(baseURL, apiKey, model string) *GeminiAnalyzer {
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(30 * time.Second)

	return &GeminiAnalyzer{client: c, model: model, apiKey: apiKey}
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig map[string]any  `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

const textPrompt = `You are a fire-safety equipment inspector. Review the inspection below and reply with JSON only:
{"analysis": "<two sentence summary>", "severity": "Low|Medium|High|Critical", "actions": ["<recommended action>", ...]}

Checklist results:
%s
Technician notes:
%s`

const imagePrompt = `You are a fire-safety equipment inspector. Describe any visible defects on the equipment in this photo and reply with JSON only:
{"analysis": "<two sentence summary>", "severity": "Low|Medium|High|Critical", "actions": ["<recommended action>", ...]}`

func (g *GeminiAnalyzer) AnalyzeText(ctx context.Context, notes string, checks map[string]*bool) (*Analysis, error) {
	if g.apiKey == "" {
		return nil, ErrAnalysisUnavailable
	}
	prompt := fmt.Sprintf(textPrompt, describeChecks(checks), notes)
	return g.generate(ctx, []geminiPart{{Text: prompt}})
}

func (g *GeminiAnalyzer) AnalyzeImage(ctx context.Context, image []byte) (*Analysis, error) {
	if g.apiKey == "" {
		return nil, ErrAnalysisUnavailable
	}
	if len(image) == 0 {
		return nil, errors.New("empty image")
	}
	parts := []geminiPart{
		{Text: imagePrompt},
		{InlineData: &geminiInlineData{
			MimeType: http.DetectContentType(image),
			Data:     base64.StdEncoding.EncodeToString(image),
		}},
	}
	return g.generate(ctx, parts)
}

func (g *GeminiAnalyzer) generate(ctx context.Context, parts []geminiPart) (*Analysis, error) {
	body := geminiRequest{
		Contents:         []geminiContent{{Parts: parts}},
		GenerationConfig: map[string]any{"responseMimeType": "application/json"},
	}

	var out geminiResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParam("key", g.apiKey).
		SetBody(&body).
		SetResult(&out).
		Post(fmt.Sprintf("/v1beta/models/%s:generateContent", g.model))
	if err != nil {
		return nil, fmt.Errorf("gemini request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("gemini status %d: %s", resp.StatusCode(), resp.String())
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return nil, errors.New("gemini returned no candidates")
	}

	text := stripFences(out.Candidates[0].Content.Parts[0].Text)
	var a Analysis
	if err := json.Unmarshal([]byte(text), &a); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	a.Severity = normalizeSeverity(a.Severity)
	return &a, nil
}

func describeChecks(checks map[string]*bool) string {
	keys := make([]string, 0, len(checks))
	for k := range checks {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		result := "not checked"
		if v := checks[k]; v != nil {
			result = "FAIL"
			if *v {
				result = "pass"
			}
		}
		fmt.Fprintf(&b, "- %s: %s\n", k, result)
	}
	return b.String()
}

// models sometimes wrap JSON in ``` fences despite the mime type
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func normalizeSeverity(s string) string {
	for _, known := range []string{models.SeverityLow, models.SeverityMedium, models.SeverityHigh, models.SeverityCritical} {
		if strings.EqualFold(strings.TrimSpace(s), known) {
			return known
		}
	}
	return models.SeverityLow
}

// FallbackAnalysis is returned whenever the remote analysis fails.
func FallbackAnalysis() *Analysis {
	return &Analysis{
		Analysis:   "Automated analysis unavailable. Review the checklist results and notes manually.",
		Severity:   models.SeverityLow,
		Actions:    []string{"Review inspection manually"},
		Confidence: "low",
	}
}

type fallbackAnalyzer struct {
	next AnalysisService
}

// WithFallback wraps svc so failures never reach the caller: text analysis
// degrades to FallbackAnalysis and image analysis to nil. svc may be nil.
func WithFallback(svc AnalysisService) AnalysisService {
	return &fallbackAnalyzer{next: svc}
}

func (f *fallbackAnalyzer) AnalyzeText(ctx context.Context, notes string, checks map[string]*bool) (*Analysis, error) {
	if f.next == nil {
		metrics.AnalysisFallbacks.WithLabelValues("text").Inc()
		return FallbackAnalysis(), nil
	}
	a, err := f.next.AnalyzeText(ctx, notes, checks)
	if err != nil || a == nil {
		log.Warn().Err(err).Msg("⚠️  note analysis failed, using fallback")
		metrics.AnalysisFallbacks.WithLabelValues("text").Inc()
		return FallbackAnalysis(), nil
	}
	return a, nil
}

func (f *fallbackAnalyzer) AnalyzeImage(ctx context.Context, image []byte) (*Analysis, error) {
	if f.next == nil {
		metrics.AnalysisFallbacks.WithLabelValues("image").Inc()
		return nil, nil
	}
	a, err := f.next.AnalyzeImage(ctx, image)
	if err != nil {
		log.Warn().Err(err).Msg("⚠️  photo analysis failed")
		metrics.AnalysisFallbacks.WithLabelValues("image").Inc()
		return nil, nil
	}
	return a, nil
}
