package ranking

import (
	"regexp"
	"strconv"
	"strings"

	"recommender/internal/domain"
)

// MaxScore is the top of the relevance scale.
const MaxScore = 10.0

// ParseReport describes how well a response matched the expected layout.
type ParseReport struct {
	Headers int
	Parsed  int
	Dropped int
	// Anomaly is set when a non-empty response produced nothing usable or
	// some recommendation blocks had to be dropped.
	Anomaly bool
}

// ResponseParser turns a ranking response into recommendations.
type ResponseParser interface {
	Parse(response string) ([]domain.Recommendation, ParseReport)
}

// LineParser is a best-effort line-oriented parser. It never fails; text it
// does not recognise is skipped.
type LineParser struct{}

var _ ResponseParser = LineParser{}

var (
	headerRe = regexp.MustCompile(`(?i)^(?:\d+[.)]\s*)?(?:recommendation(?:\s*#?\s*\d+)?|assessment(?:\s+name)?)\s*:\s*(.*)$`)
	numberRe = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// Parse parses response with a LineParser.
func Parse(response string) ([]domain.Recommendation, ParseReport) {
	return LineParser{}.Parse(response)
}

type block struct {
	rec       domain.Recommendation
	reasoning bool
	open      bool
}

func (LineParser) Parse(response string) ([]domain.Recommendation, ParseReport) {
	var (
		report ParseReport
		recs   []domain.Recommendation
		cur    *block
	)
	flush := func() {
		if cur == nil {
			return
		}
		if cur.rec.AssessmentName == "" {
			report.Dropped++
		} else {
			recs = append(recs, cur.rec)
		}
		cur = nil
	}

	for _, raw := range strings.Split(response, "\n") {
		line := strings.TrimSpace(raw)
		bare := bareLine(line)

		if m := headerRe.FindStringSubmatch(bare); m != nil {
			flush()
			report.Headers++
			cur = &block{rec: domain.Recommendation{AssessmentName: cleanName(m[1])}}
			continue
		}
		if cur == nil || line == "" {
			continue
		}

		label, value, hasColon := strings.Cut(bare, ":")
		label = strings.ToLower(label)
		switch {
		case hasColon && strings.Contains(label, "score"), !hasColon && strings.Contains(label, "relevance score"):
			if s, ok := parseScore(bare); ok {
				cur.rec.RelevanceScore = s
			}
			cur.open = false
		case hasColon && (strings.Contains(label, "reason") || strings.Contains(label, "match factors")):
			cur.rec.Reasoning = strings.TrimSpace(value)
			cur.reasoning = true
			cur.open = true
		case strings.Contains(line, "**"):
			// a bold heading that is not a recommendation ends the block
			cur.open = false
		case cur.reasoning && cur.open && !strings.HasPrefix(line, "-"):
			cur.rec.Reasoning += " " + line
		}
	}
	flush()

	report.Parsed = len(recs)
	report.Anomaly = report.Dropped > 0 || (report.Parsed == 0 && strings.TrimSpace(response) != "")
	return recs, report
}

// bareLine strips list markers and bold markup.
func bareLine(line string) string {
	line = strings.ReplaceAll(line, "**", "")
	line = strings.TrimLeft(line, "-*#• \t")
	return strings.TrimSpace(line)
}

func cleanName(s string) string {
	s = strings.NewReplacer("**", "", "[", "", "]", "").Replace(s)
	return strings.TrimSpace(s)
}

// parseScore reads the first number on a score line and maps it onto 0..10.
// Values above 10 are read as a 0..100 scale.
func parseScore(line string) (float64, bool) {
	_, after, ok := strings.Cut(line, ":")
	if !ok {
		after = line
	}
	m := numberRe.FindString(after)
	if m == "" {
		return 0, false
	}
	s, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	if s > MaxScore {
		s /= 10
	}
	return min(s, MaxScore), true
}
