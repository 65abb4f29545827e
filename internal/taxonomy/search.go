package taxonomy

import (
	"strings"

	"github.com/pavelanni/questionbd/internal/access"
	"github.com/pavelanni/questionbd/internal/model"
)

// MaxResults caps a search.
const MaxResults = 20

// SearchQuery is a free-text query plus optional filters. Zero values mean
// "no filter".
type SearchQuery struct {
	Text       string         `json:"q"`
	Category   model.Category `json:"category,omitempty"`
	Board      string         `json:"board,omitempty"`
	Group      string         `json:"group,omitempty"`
	Department string         `json:"department,omitempty"`
	Year       int            `json:"year,omitempty"`
}

func (q SearchQuery) hasFilters() bool {
	return q.Category != "" || q.Board != "" || q.Group != "" || q.Department != "" || q.Year != 0
}

// Hit is a search result annotated with whether the viewer may open it
// and which scope unlocks it.
type Hit struct {
	Document model.Document `json:"document"`
	Locked   bool           `json:"locked"`
	Scope    model.ScopeKey `json:"scope"`
}

// NewHit annotates d for viewer. A locked document is redacted.
func NewHit(d model.Document, viewer *model.SessionUser, unlocks []model.UnlockRequest) Hit {
	t := access.TargetForDocument(d)
	locked := !access.CanAccess(t, viewer, unlocks)
	if locked {
		d = d.Redacted()
	}
	return Hit{Document: d, Locked: locked, Scope: access.ScopeFor(t)}
}

// NormalizeQuery trims, lowercases and collapses runs of whitespace.
func NormalizeQuery(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Search returns up to MaxResults documents, in catalog order, that match
// every term of the query and all of its filters. A blank query without
// filters returns nothing.
func (rt *Router) Search(q SearchQuery, viewer *model.SessionUser, unlocks []model.UnlockRequest) ([]Hit, error) {
	terms := strings.Fields(NormalizeQuery(q.Text))
	if len(terms) == 0 && !q.hasFilters() {
		return nil, nil
	}
	docs, err := rt.docs.ListDocuments()
	if err != nil {
		return nil, err
	}

	var hits []Hit
	for _, d := range docs {
		if !matchesFilters(d, q) || !matchesTerms(d, terms) {
			continue
		}
		hits = append(hits, NewHit(d, viewer, unlocks))
		if len(hits) == MaxResults {
			break
		}
	}
	return hits, nil
}

func matchesFilters(d model.Document, q SearchQuery) bool {
	if q.Category != "" && d.Category != q.Category {
		return false
	}
	switch {
	case q.Category.HasBoards():
		if q.Board != "" && d.BoardName != q.Board {
			return false
		}
		if q.Group != "" && d.Group != q.Group {
			return false
		}
	case q.Category == model.CategoryNU && q.Group == model.ProgramProfessionals:
		if d.Department == "" {
			return false
		}
		if q.Department != "" && d.Department != q.Department {
			return false
		}
	case q.Category == model.CategoryNU:
		if q.Group != "" && d.Group != q.Group {
			return false
		}
		if q.Department != "" && d.Department != q.Department {
			return false
		}
	case q.Category == "":
		if q.Board != "" && d.BoardName != q.Board {
			return false
		}
		if q.Group != "" && d.Group != q.Group {
			return false
		}
		if q.Department != "" && d.Department != q.Department {
			return false
		}
	}
	if q.Year != 0 && d.Year != q.Year {
		return false
	}
	return true
}

func matchesTerms(d model.Document, terms []string) bool {
	text := strings.ToLower(d.SearchText())
	for _, t := range terms {
		if !strings.Contains(text, t) {
			return false
		}
	}
	return true
}
