package parser

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"resume-triage/internal/extract"
	"resume-triage/internal/models"
)

var (
	emailRe = regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`)
	phoneRe = regexp.MustCompile(`(?:\+\d{1,2}\s)?\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]?\d{4}\b`)

	monthToken = `(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Sept|Oct|Nov|Dec)[a-z]*\.?`
	dateToken  = `(?:` + monthToken + `\s+\d{4}|\d{1,2}/\d{4}|\d{4})`
	rangeRe    = regexp.MustCompile(`(?i)(` + dateToken + `)\s*(?:-|–|—|to)\s*(` + dateToken + `|present|current|now)`)

	yearsExpRe = regexp.MustCompile(`(?i)(\d+)\+?\s*years?\s*(?:of\s*)?experience`)
	eduYearRe  = regexp.MustCompile(`\b(19|20)\d{2}\b`)
)

// Basic keyword dictionary for naive skill matching. Phrases are matched
// case-insensitively as substrings of the resume text.
var skillKeywords = []string{
	"Go", "Golang", "Python", "Java", "JavaScript", "TypeScript", "C++", "C#",
	"Ruby", "PHP", "Rust", "Scala", "Kotlin", "Swift", "R",
	"React", "Vue", "Angular", "Node.js", "Express", "Django", "Flask",
	"FastAPI", "Spring", "Rails",
	"SQL", "NoSQL", "PostgreSQL", "MySQL", "MongoDB", "Redis", "Elasticsearch",
	"AWS", "Azure", "GCP", "Docker", "Kubernetes", "Terraform", "CI/CD", "Git",
	"GraphQL", "REST", "gRPC", "Microservices", "Kafka", "RabbitMQ",
	"Machine Learning", "Deep Learning", "Data Science", "NLP",
	"TensorFlow", "PyTorch", "Pandas", "Spark",
	"Agile", "Scrum", "Kanban", "Jira", "Product Management",
}

var degreeKeywords = []string{
	"bachelor", "master", "phd", "ph.d", "doctorate", "associate",
	"b.s.", "b.sc", "bsc", "b.a.", "m.s.", "m.sc", "msc", "m.a.", "mba",
	"b.e.", "b.tech", "m.tech", "diploma",
}

// HeuristicExtractor is the lower-fidelity fallback: paragraph/line scanning,
// regex matching for contact details, keyword matching for skills. It never
// errors; an empty resume simply yields empty fields.
type HeuristicExtractor struct{}

func NewHeuristicExtractor() *HeuristicExtractor { return &HeuristicExtractor{} }

func (h *HeuristicExtractor) ExtractFields(ctx context.Context, rawText string) (*extract.Fields, error) {
	fields := &extract.Fields{
		Name:   guessName(rawText),
		Skills: matchSkills(rawText),
	}

	if m := emailRe.FindString(rawText); m != "" {
		fields.Email = m
	}
	if m := phoneRe.FindString(rawText); m != "" {
		fields.Phone = strings.TrimSpace(m)
	}

	fields.WorkExperience = findWorkExperience(rawText)
	fields.Education = findEducation(rawText)

	fields.TotalYearsExp = TotalYears(fields.WorkExperience)
	if fields.TotalYearsExp == 0 {
		if m := yearsExpRe.FindStringSubmatch(rawText); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				fields.TotalYearsExp = float64(n)
			}
		}
	}

	return fields, nil
}

// TotalYears is the naive per-entry sum: overlapping ranges are not
// de-duplicated, and each entry's tenure is clipped to non-negative.
func TotalYears(entries []models.WorkExperience) float64 {
	var total float64
	for _, e := range entries {
		if e.TenureYears > 0 {
			total += e.TenureYears
		}
	}
	return total
}

func matchSkills(text string) []string {
	lower := strings.ToLower(text)
	var skills []string
	for _, kw := range skillKeywords {
		if containsToken(lower, strings.ToLower(kw)) {
			skills = append(skills, kw)
		}
	}
	return skills
}

// containsToken matches kw as a substring bounded by non-letter characters,
// so "Java" does not fire on "JavaScript".
func containsToken(lower, kw string) bool {
	for start := 0; ; {
		i := strings.Index(lower[start:], kw)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(kw)

		before, _ := utf8.DecodeLastRuneInString(lower[:i])
		after, _ := utf8.DecodeRuneInString(lower[end:])
		beforeOK := i == 0 || !isWordRune(before)
		afterOK := end == len(lower) || !isWordRune(after)
		if beforeOK && afterOK {
			return true
		}
		start = i + 1
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func guessName(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if emailRe.MatchString(line) || phoneRe.MatchString(line) {
			return ""
		}
		words := strings.Fields(line)
		if len(words) < 2 || len(words) > 4 {
			return ""
		}
		for _, w := range words {
			for _, r := range w {
				if !unicode.IsLetter(r) && r != '.' && r != '-' && r != '\'' {
					return ""
				}
			}
		}
		return line
	}
	return ""
}

func findWorkExperience(text string) []models.WorkExperience {
	var entries []models.WorkExperience
	for _, line := range strings.Split(text, "\n") {
		m := rangeRe.FindStringSubmatchIndex(line)
		if m == nil {
			continue
		}

		start := line[m[2]:m[3]]
		end := line[m[4]:m[5]]
		prefix := strings.Trim(strings.TrimSpace(line[:m[0]]), ",;-–—|()")

		entry := models.WorkExperience{
			Start:       start,
			End:         end,
			TenureYears: tenureYears(start, end),
		}
		entry.Title, entry.Company = splitTitleCompany(prefix)
		entries = append(entries, entry)
	}
	return entries
}

func splitTitleCompany(s string) (title, company string) {
	for _, sep := range []string{" at ", " @ ", ", ", " - ", " – "} {
		if i := strings.Index(s, sep); i > 0 {
			return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+len(sep):])
		}
	}
	return strings.TrimSpace(s), ""
}

// tenureYears computes the span of a date range in years, clipped to
// non-negative. Unparseable endpoints yield zero.
func tenureYears(start, end string) float64 {
	s, ok := parseLooseDate(start, false)
	if !ok {
		return 0
	}
	var e time.Time
	switch strings.ToLower(strings.TrimSpace(end)) {
	case "present", "current", "now":
		e = time.Now()
	default:
		e, ok = parseLooseDate(end, true)
		if !ok {
			return 0
		}
	}

	years := e.Sub(s).Hours() / (24 * 365.25)
	if years < 0 {
		return 0
	}
	return years
}

func parseLooseDate(s string, endOfRange bool) (time.Time, bool) {
	s = strings.TrimSpace(strings.TrimSuffix(s, "."))
	s = strings.Replace(s, "Sept ", "Sep ", 1)

	for _, layout := range []string{"Jan 2006", "January 2006", "1/2006", "01/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if len(s) == 4 {
		if year, err := strconv.Atoi(s); err == nil {
			// A bare end year counts as the whole year.
			month := time.January
			if endOfRange {
				month = time.December
			}
			return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

func findEducation(text string) []models.Education {
	var entries []models.Education
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)

		matched := false
		for _, kw := range degreeKeywords {
			if strings.Contains(lower, kw) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}

		entry := models.Education{Degree: trimmed}
		if m := eduYearRe.FindString(trimmed); m != "" {
			if y, err := strconv.Atoi(m); err == nil {
				entry.Year = &y
			}
		}
		entries = append(entries, entry)
	}
	return entries
}
