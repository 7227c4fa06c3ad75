package tui

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"recommender/internal/domain"
)

// RecommendPort is the TUI-facing subset of the recommender.
type RecommendPort interface {
	Recommend(ctx context.Context, query string, topK int) (*domain.RecommendationResult, error)
}

// ReloadedMsg tells the model a new index snapshot is being served.
type ReloadedMsg struct {
	Summary string
}

type resultMsg struct {
	query  string
	result *domain.RecommendationResult
	err    error
}

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	ctx       context.Context
	service   RecommendPort
	topK      int
	input     textinput.Model
	viewport  viewport.Model
	results   []domain.Recommendation
	summary   string
	status    string
	cursor    int
	ready     bool
	busy      bool
	lastQuery string
}

// New creates a new TUI model instance.
func New(ctx context.Context, service RecommendPort, topK int, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Describe the role you are hiring for and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		ctx:      ctx,
		service:  service,
		topK:     topK,
		input:    ti,
		viewport: vp,
		summary:  summary,
		status:   "Index loaded. Type a hiring requirement.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) recommend(q string) tea.Cmd {
	return func() tea.Msg {
		res, err := m.service.Recommend(m.ctx, q, m.topK)
		return resultMsg{query: q, result: res, err: err}
	}
}

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		// account for frames around result and query boxes
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		totalHeaderLines := 2                                    // header + summary
		totalFooterLines := 1                                    // status
		reserved := totalHeaderLines + totalFooterLines + qh + 1 // 1 spacer
		vh := max(3, msg.Height-reserved)
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderCurrentResult())
		return m, nil
	case ReloadedMsg:
		if msg.Summary != "" {
			m.summary = msg.Summary
		}
		if !m.busy {
			m.status = "Index reloaded."
		}
		return m, nil
	case resultMsg:
		m.busy = false
		switch {
		case msg.err != nil:
			m.status = "Error: " + msg.err.Error()
			m.results = nil
		default:
			m.status = statusLine(msg.query, msg.result)
			m.results = msg.result.Recommendations
			m.cursor = 0
			m.lastQuery = msg.query
		}
		m.viewport.SetContent(m.renderCurrentResult())
		return m, nil
	case tea.KeyMsg:
		// Global quits
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" && !m.busy {
				m.busy = true
				m.status = fmt.Sprintf("Finding assessments for %q...", q)
				return m, m.recommend(q)
			}
		case "down":
			if len(m.results) > 0 {
				m.cursor = (m.cursor + 1) % len(m.results)
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		case "up":
			if len(m.results) > 0 {
				m.cursor = (m.cursor - 1 + len(m.results)) % len(m.results)
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func statusLine(q string, res *domain.RecommendationResult) string {
	switch {
	case res.Error != "":
		return res.Error
	case res.Message != "":
		return fmt.Sprintf("%s (%q, %.2fs)", res.Message, q, res.ProcessingTime)
	default:
		return fmt.Sprintf("%d recommendations for %q from %d candidates (%.2fs)",
			len(res.Recommendations), q, res.RetrievedCount, res.ProcessingTime)
	}
}

// View renders the TUI layout and current result.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Assessment Recommender")
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.summary)
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + summary + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderCurrentResult() string {
	if len(m.results) == 0 {
		return "No recommendations yet."
	}
	r := m.results[m.cursor]
	var b strings.Builder
	fmt.Fprintf(&b, "Recommendation %d/%d  relevance=%.1f/10", m.cursor+1, len(m.results), r.RelevanceScore)
	if r.SimilarityScore != nil {
		fmt.Fprintf(&b, "  similarity=%.3f", *r.SimilarityScore)
	}
	b.WriteString("\n\n")
	b.WriteString(titleStyle.Render(r.AssessmentName))
	b.WriteString("\n")
	if r.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", r.Category)
	}
	if len(r.TargetRoles) > 0 {
		fmt.Fprintf(&b, "Suitable for: %s\n", strings.Join(r.TargetRoles, ", "))
	}
	if r.Duration != "" {
		fmt.Fprintf(&b, "Duration: %s\n", r.Duration)
	}
	if r.URL != "" {
		fmt.Fprintf(&b, "%s\n", r.URL)
	}
	b.WriteString("\n")
	b.WriteString(r.Reasoning)
	if r.Description != "" {
		b.WriteString("\n\n")
		b.WriteString(highlightBestSentence(r.Description, m.lastQuery))
	}
	return b.String()
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	unicodeWordRe  = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe     = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := splitSentences(text)
	qTokens := toTokenSet(query)
	if len(qTokens) == 0 {
		return strings.Join(sentences, " ")
	}
	bestIdx := 0
	bestScore := -1
	for i, s := range sentences {
		score := tokenOverlapScore(qTokens, s)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	for i := range sentences {
		sent := strings.TrimSpace(sentences[i])
		if i == bestIdx {
			sentences[i] = highlightStyle.Render(sent)
		} else {
			sentences[i] = sent
		}
	}
	return strings.Join(sentences, " ")
}

// splitSentences keeps unpunctuated trailing text as a final sentence.
func splitSentences(text string) []string {
	var out []string
	end := 0
	for _, loc := range sentenceRe.FindAllStringIndex(text, -1) {
		out = append(out, text[loc[0]:loc[1]])
		end = loc[1]
	}
	if tail := strings.TrimSpace(text[end:]); tail != "" {
		out = append(out, tail)
	}
	return out
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	tokens := unicodeWordRe.FindAllString(strings.ToLower(sentence), -1)
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
