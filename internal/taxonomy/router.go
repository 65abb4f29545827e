package taxonomy

import (
	"slices"
	"strconv"

	"github.com/pavelanni/questionbd/internal/access"
	"github.com/pavelanni/questionbd/internal/model"
)

// Kind says what a resolved path points at.
type Kind string

const (
	KindBranch    Kind = "branch"
	KindDocuments Kind = "documents"
	KindLocked    Kind = "locked"
	KindNotFound  Kind = "not_found"
)

// Entry is one child of a branch node. Segment is what the caller appends
// to the path to descend into it.
type Entry struct {
	Segment string `json:"segment"`
	Label   string `json:"label"`
	Code    string `json:"code,omitempty"`
	Locked  bool   `json:"locked,omitempty"`
}

// Node is the result of resolving a path.
type Node struct {
	Kind      Kind             `json:"kind"`
	Path      []string         `json:"path"`
	Title     string           `json:"title"`
	Children  []Entry          `json:"children,omitempty"`
	Documents []model.Document `json:"documents,omitempty"`
	LockedIDs []string         `json:"locked_ids,omitempty"`
	Lock      *model.ScopeKey  `json:"lock,omitempty"`
}

// DocumentLister supplies the catalog.
type DocumentLister interface {
	ListDocuments() ([]model.Document, error)
}

// Router resolves breadcrumb paths against the fixed hierarchy and the
// catalog.
type Router struct {
	docs DocumentLister
}

func NewRouter(docs DocumentLister) *Router {
	return &Router{docs: docs}
}

// resolution carries one Resolve call.
type resolution struct {
	path    []string
	viewer  *model.SessionUser
	unlocks []model.UnlockRequest
	docs    []model.Document
}

func (r *resolution) node(kind Kind) Node {
	title := "Browse"
	if len(r.path) > 0 {
		title = r.path[len(r.path)-1]
	}
	return Node{Kind: kind, Path: r.path, Title: title}
}

func (r *resolution) branch(children []Entry) Node {
	n := r.node(KindBranch)
	n.Children = children
	return n
}

// documents lists docs, redacting any the viewer may not open. A slice
// can mix scopes, e.g. Model Test across groups.
func (r *resolution) documents(docs []model.Document) Node {
	n := r.node(KindDocuments)
	docs = slices.Clone(docs)
	for i, d := range docs {
		if !access.CanOpen(d, r.viewer, r.unlocks) {
			docs[i] = d.Redacted()
			n.LockedIDs = append(n.LockedIDs, d.ID)
		}
	}
	n.Documents = docs
	return n
}

func (r *resolution) notFound() Node {
	return r.node(KindNotFound)
}

func (r *resolution) locked(t access.Target) Node {
	n := r.node(KindLocked)
	scope := access.ScopeFor(t)
	n.Lock = &scope
	return n
}

func (r *resolution) allowed(t access.Target) bool {
	return access.CanAccess(t, r.viewer, r.unlocks)
}

func (r *resolution) filter(keep func(model.Document) bool) []model.Document {
	var out []model.Document
	for _, d := range r.docs {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}

// Resolve interprets path segments and returns the next level of the
// hierarchy, a document list, a locked marker carrying the scope to pay
// for, or not_found. It only fails when the catalog cannot be read.
func (rt *Router) Resolve(path []string, viewer *model.SessionUser, unlocks []model.UnlockRequest) (Node, error) {
	docs, err := rt.docs.ListDocuments()
	if err != nil {
		return Node{}, err
	}
	r := &resolution{path: path, viewer: viewer, unlocks: unlocks, docs: docs}

	if len(path) == 0 {
		entries := make([]Entry, 0, len(model.Categories))
		for _, c := range model.Categories {
			entries = append(entries, Entry{Segment: string(c), Label: string(c)})
		}
		return r.branch(entries), nil
	}

	switch c := model.Category(path[0]); c {
	case model.CategorySSC, model.CategoryHSC:
		return r.secondary(c, path[1:]), nil
	case model.CategoryNU:
		return r.university(path[1:]), nil
	case model.CategoryBCS:
		return r.civilService(path[1:]), nil
	}
	return r.notFound(), nil
}

// SSC/HSC: board → group → year → subject → documents.
func (r *resolution) secondary(c model.Category, rest []string) Node {
	if len(rest) == 0 {
		return r.branch(labels(Boards))
	}
	board := rest[0]
	if !slices.Contains(Boards, board) {
		return r.notFound()
	}
	if len(rest) == 1 {
		return r.branch(labels(SecondaryGroups))
	}
	group := rest[1]
	if !slices.Contains(SecondaryGroups, group) {
		return r.notFound()
	}
	target := func(year int) access.Target {
		return access.Target{Category: c, BoardName: board, GroupOrProgram: group, Year: year,
			ModelTest: group == model.GroupModelTest}
	}
	if len(rest) == 2 {
		return r.branch(r.yearEntries(target))
	}
	year, ok := parseYear(rest[2])
	if !ok {
		return r.notFound()
	}
	if !r.allowed(target(year)) {
		return r.locked(target(year))
	}
	slice := r.filter(func(d model.Document) bool {
		return d.Category == c && d.BoardName == board &&
			(d.Group == group || group == model.GroupModelTest) && d.Year == year
	})
	return r.subjectLevel(Subjects(c, group), slice, rest[3:])
}

// NU: program → year → subject, or Professionals → department → semester
// → year → subject.
func (r *resolution) university(rest []string) Node {
	if len(rest) == 0 {
		return r.branch(labels(Programs))
	}
	program := rest[0]
	if !slices.Contains(Programs, program) {
		return r.notFound()
	}
	if program == model.ProgramProfessionals {
		return r.professionals(rest[1:])
	}
	target := func(year int) access.Target {
		return access.Target{Category: model.CategoryNU, GroupOrProgram: program, Year: year}
	}
	if len(rest) == 1 {
		return r.branch(r.yearEntries(target))
	}
	year, ok := parseYear(rest[1])
	if !ok {
		return r.notFound()
	}
	if !r.allowed(target(year)) {
		return r.locked(target(year))
	}
	slice := r.filter(func(d model.Document) bool {
		return d.Category == model.CategoryNU && d.Group == program && d.Year == year
	})
	return r.subjectLevel(Subjects(model.CategoryNU, program), slice, rest[2:])
}

func (r *resolution) professionals(rest []string) Node {
	if len(rest) == 0 {
		return r.branch(labels(Departments))
	}
	dept := rest[0]
	if !slices.Contains(Departments, dept) {
		return r.notFound()
	}
	if len(rest) == 1 {
		entries := make([]Entry, 0, semesterN)
		for _, s := range Semesters() {
			entries = append(entries, Entry{Segment: SemesterSegment(s), Label: s})
		}
		return r.branch(entries)
	}
	semester, ok := ParseSemester(rest[1])
	if !ok {
		return r.notFound()
	}
	target := func(year int) access.Target {
		return access.Target{Category: model.CategoryNU, GroupOrProgram: dept, Year: year}
	}
	if len(rest) == 2 {
		return r.branch(r.yearEntries(target))
	}
	year, ok := parseYear(rest[2])
	if !ok {
		return r.notFound()
	}
	if !r.allowed(target(year)) {
		return r.locked(target(year))
	}
	slice := r.filter(func(d model.Document) bool {
		return d.Category == model.CategoryNU && d.Department == dept && d.Semester == semester && d.Year == year
	})
	return r.derivedSubjects(slice, rest[3:], false)
}

// BCS: Preliminary → batch → subject → documents.
func (r *resolution) civilService(rest []string) Node {
	if len(rest) == 0 {
		return r.branch([]Entry{{Segment: model.GroupPreliminary, Label: model.GroupPreliminary}})
	}
	if rest[0] != model.GroupPreliminary {
		return r.notFound()
	}
	target := func(batch int) access.Target {
		return access.Target{Category: model.CategoryBCS, GroupOrProgram: model.GroupPreliminary, Batch: batch}
	}
	if len(rest) == 1 {
		batches := Batches()
		entries := make([]Entry, 0, len(batches))
		for _, b := range batches {
			entries = append(entries, Entry{
				Segment: BatchLabel(b),
				Label:   BatchLabel(b),
				Locked:  !r.allowed(target(b)),
			})
		}
		return r.branch(entries)
	}
	batch, ok := ParseBatch(rest[1])
	if !ok {
		return r.notFound()
	}
	if !r.allowed(target(batch)) {
		return r.locked(target(batch))
	}
	slice := r.filter(func(d model.Document) bool {
		return d.Category == model.CategoryBCS && d.Group == model.GroupPreliminary && d.BCSNumber == batch
	})
	return r.derivedSubjects(slice, rest[2:], true)
}

func (r *resolution) yearEntries(target func(int) access.Target) []Entry {
	years := Years()
	entries := make([]Entry, 0, len(years))
	for _, y := range years {
		seg := strconv.Itoa(y)
		entries = append(entries, Entry{Segment: seg, Label: seg, Locked: !r.allowed(target(y))})
	}
	return entries
}

// subjectLevel lists a fixed subject list, extended with any other subject
// found in the slice, and resolves a chosen subject to the documents of
// that subject plus those that carry no subject at all.
func (r *resolution) subjectLevel(fixed []Subject, slice []model.Document, rest []string) Node {
	subjects := fixed
	for _, d := range slice {
		if d.SubjectName != "" && !hasSubject(subjects, d.SubjectName) {
			subjects = append(subjects, Subject{Name: d.SubjectName, Code: d.SubjectCode})
		}
	}
	if len(rest) == 0 {
		return r.branch(subjectEntries(subjects))
	}
	if len(rest) > 1 || !hasSubject(subjects, rest[0]) {
		return r.notFound()
	}
	name := rest[0]
	var docs []model.Document
	for _, d := range slice {
		if d.SubjectName == name || d.SubjectName == "" {
			docs = append(docs, d)
		}
	}
	return r.documents(docs)
}

// derivedSubjects lists the distinct subjects present in the slice. When
// direct is set and no document has a subject, the slice itself is shown.
func (r *resolution) derivedSubjects(slice []model.Document, rest []string, direct bool) Node {
	var subjects []Subject
	for _, d := range slice {
		if d.SubjectName != "" && !hasSubject(subjects, d.SubjectName) {
			subjects = append(subjects, Subject{Name: d.SubjectName, Code: d.SubjectCode})
		}
	}
	if len(rest) == 0 {
		if len(subjects) == 0 && direct {
			return r.documents(slice)
		}
		return r.branch(subjectEntries(subjects))
	}
	if len(rest) > 1 || !hasSubject(subjects, rest[0]) {
		return r.notFound()
	}
	var docs []model.Document
	for _, d := range slice {
		if d.SubjectName == rest[0] {
			docs = append(docs, d)
		}
	}
	return r.documents(docs)
}

func hasSubject(list []Subject, name string) bool {
	return slices.ContainsFunc(list, func(s Subject) bool { return s.Name == name })
}

func subjectEntries(list []Subject) []Entry {
	entries := make([]Entry, 0, len(list))
	for _, s := range list {
		entries = append(entries, Entry{Segment: s.Name, Label: s.Name, Code: s.Code})
	}
	return entries
}

func labels(names []string) []Entry {
	entries := make([]Entry, 0, len(names))
	for _, n := range names {
		entries = append(entries, Entry{Segment: n, Label: n})
	}
	return entries
}

func parseYear(seg string) (int, bool) {
	y, err := strconv.Atoi(seg)
	if err != nil || y < oldestYear || y > newestYear {
		return 0, false
	}
	return y, true
}
