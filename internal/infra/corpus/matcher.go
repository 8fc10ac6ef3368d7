package corpus

import (
	"context"
	"regexp"
	"sort"
	"strings"

	domain "github.com/bryanwahyu/lexiguard/internal/domain/analysis"
)

var (
	sectionRe = regexp.MustCompile(`(?i)\bsection\s+(\d+[A-Za-z]?)\b`)
	articleRe = regexp.MustCompile(`(?i)\barticle\s+(\d+[A-Za-z]?)\b`)
)

// Matcher finds statutory references in extracted text. Deterministic
// for a given text: regex candidates, attributed to acts mentioned in
// the document, deduplicated and sorted.
type Matcher struct {
	corpus *Corpus
}

func NewMatcher(c *Corpus) *Matcher {
	return &Matcher{corpus: c}
}

func (m *Matcher) Match(ctx context.Context, text string) ([]domain.StatuteRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lower := strings.ToLower(text)

	mentioned := m.mentionedActs(lower)

	seen := make(map[string]struct{})
	var refs []domain.StatuteRef

	for _, match := range sectionRe.FindAllStringSubmatch(text, -1) {
		num := strings.ToUpper(match[1])
		for _, act := range mentioned {
			key := act.Alias + "#" + num
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			refs = append(refs, domain.StatuteRef{
				Act:     act.Alias,
				Section: num,
				Title:   act.sectionTitle(num),
			})
		}
	}

	for _, match := range articleRe.FindAllStringSubmatch(text, -1) {
		num := strings.ToUpper(match[1])
		key := "Constitution#" + num
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		refs = append(refs, domain.StatuteRef{
			Act:     "Constitution of India",
			Section: "Article " + num,
			Title:   m.articleTitle(num),
		})
	}

	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Act != refs[j].Act {
			return refs[i].Act < refs[j].Act
		}
		return refs[i].Section < refs[j].Section
	})
	return refs, nil
}

// mentionedActs returns corpus acts referenced by name or alias in the
// document, falling back to all acts that index the found sections.
func (m *Matcher) mentionedActs(lower string) []*Act {
	var out []*Act
	for i := range m.corpus.Acts {
		act := &m.corpus.Acts[i]
		if strings.Contains(lower, strings.ToLower(act.Alias)) ||
			strings.Contains(lower, strings.ToLower(act.Name)) {
			out = append(out, act)
		}
	}
	if len(out) == 0 && len(m.corpus.Acts) > 0 {
		// no act named explicitly; attribute sections to the primary act
		out = append(out, &m.corpus.Acts[0])
	}
	return out
}

func (a *Act) sectionTitle(num string) string {
	for _, s := range a.Sections {
		if strings.EqualFold(s.Section, num) {
			return s.Title
		}
	}
	return ""
}

func (m *Matcher) articleTitle(num string) string {
	for _, a := range m.corpus.Articles {
		if strings.EqualFold(a.Article, num) {
			return a.Title
		}
	}
	return ""
}
