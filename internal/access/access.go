// Package access decides whether a viewer may open a slice of the catalog.
package access

import (
	"slices"

	"github.com/pavelanni/questionbd/internal/model"
)

// FreeBatchFrom is the first civil-service batch that is open to everyone.
const FreeBatchFrom = 49

// FreeYears are open to everyone outside the civil-service track.
var FreeYears = []int{2024, 2025}

// Target is the slice being opened: a year node, a batch node or a single
// document.
type Target struct {
	Category       model.Category
	BoardName      string
	GroupOrProgram string
	Year           int
	Batch          int
	ModelTest      bool
}

// CanAccess applies the access rules in order of precedence:
// model tests, admins, civil-service batches, free years, then an approved
// unlock with a matching scope. A nil viewer never matches an unlock.
func CanAccess(t Target, viewer *model.SessionUser, unlocks []model.UnlockRequest) bool {
	if t.ModelTest {
		return true
	}
	if viewer.IsAdmin() {
		return true
	}
	if t.Category == model.CategoryBCS {
		if t.Batch >= FreeBatchFrom {
			return true
		}
		return hasUnlock(viewer, unlocks, func(u model.UnlockRequest) bool {
			return u.Scope.ExamType == model.CategoryBCS && u.Scope.GroupOrProgram == model.GroupPreliminary
		})
	}
	if slices.Contains(FreeYears, t.Year) {
		return true
	}
	want := ScopeFor(t)
	return hasUnlock(viewer, unlocks, func(u model.UnlockRequest) bool {
		if u.Scope.ExamType != want.ExamType || u.Scope.GroupOrProgram != want.GroupOrProgram {
			return false
		}
		return !want.ExamType.HasBoards() || u.Scope.BoardName == want.BoardName
	})
}

func hasUnlock(viewer *model.SessionUser, unlocks []model.UnlockRequest, match func(model.UnlockRequest) bool) bool {
	if viewer == nil {
		return false
	}
	for _, u := range unlocks {
		if u.AccountID == viewer.ID && u.UnlockStatus && match(u) {
			return true
		}
	}
	return false
}

// ScopeFor returns the unlock key a payment for t must carry.
func ScopeFor(t Target) model.ScopeKey {
	switch {
	case t.Category == model.CategoryBCS:
		return model.ScopeKey{ExamType: model.CategoryBCS, GroupOrProgram: model.GroupPreliminary}
	case t.Category.HasBoards():
		return model.ScopeKey{ExamType: t.Category, BoardName: t.BoardName, GroupOrProgram: t.GroupOrProgram}
	}
	return model.ScopeKey{ExamType: t.Category, GroupOrProgram: t.GroupOrProgram}
}

// TargetForDocument derives the access target of a single document.
// NU documents are keyed by department, then program; boarded tracks
// default to Science when the group is missing.
func TargetForDocument(d model.Document) Target {
	t := Target{
		Category:  d.Category,
		Year:      d.Year,
		Batch:     d.BCSNumber,
		ModelTest: d.IsModelTest(),
	}
	switch d.Category {
	case model.CategoryNU:
		t.GroupOrProgram = firstNonEmpty(d.Department, d.Group, model.ProgramProfessionals)
	case model.CategoryBCS:
		t.GroupOrProgram = model.GroupPreliminary
	default:
		t.BoardName = d.BoardName
		t.GroupOrProgram = firstNonEmpty(d.Group, "Science")
	}
	return t
}

// CanOpen reports whether viewer may open the document.
func CanOpen(d model.Document, viewer *model.SessionUser, unlocks []model.UnlockRequest) bool {
	return CanAccess(TargetForDocument(d), viewer, unlocks)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
