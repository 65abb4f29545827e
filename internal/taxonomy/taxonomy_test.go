package taxonomy

import (
	"fmt"
	"testing"

	"github.com/pavelanni/questionbd/internal/model"
)

type catalog []model.Document

func (c catalog) ListDocuments() ([]model.Document, error) { return c, nil }

func doc(id string, class model.Classification, year int, subject string) model.Document {
	d := model.NewDocument(class, model.DocumentContent{
		Title: id, Year: year, SubjectName: subject, Type: model.DocumentImage, URL: "https://example.com/" + id,
	})
	d.ID = id
	return d
}

var (
	dhakaScience    = model.SecondaryClass{Track: model.CategorySSC, Board: "Dhaka Board", Group: "Science"}
	dhakaArts       = model.SecondaryClass{Track: model.CategorySSC, Board: "Dhaka Board", Group: "Arts"}
	hscModel        = model.SecondaryClass{Track: model.CategoryHSC, Board: "Dhaka Board", Group: model.GroupModelTest}
	hscScienceClass = model.SecondaryClass{Track: model.CategoryHSC, Board: "Dhaka Board", Group: "Science"}
	cse1            = model.UniversityClass{Program: model.ProgramProfessionals, Department: "CSE", Semester: "Semester 1"}
	honours         = model.UniversityClass{Program: "Honours"}
)

func testCatalog() catalog {
	return catalog{
		doc("ssc-phy-23", dhakaScience, 2023, "Physics"),
		doc("ssc-phy-24", dhakaScience, 2024, "Physics"),
		doc("ssc-nosub-24", dhakaScience, 2024, ""),
		doc("ssc-geo-24", dhakaArts, 2024, "Geography"),
		doc("hsc-model-21", hscModel, 2021, "Physics 1st Paper"),
		doc("hsc-sci-21", hscScienceClass, 2021, "Physics 1st Paper"),
		doc("nu-prog-21", cse1, 2021, "Programming"),
		doc("nu-hon-24", honours, 2024, "Bangla 1st Paper"),
		doc("bcs-44-ban", model.CivilServiceClass{Batch: 44}, 2022, "Bangla"),
		doc("bcs-49-gs", model.CivilServiceClass{Batch: 49}, 2024, "General Science"),
		doc("bcs-50-a", model.CivilServiceClass{Batch: 50}, 2025, ""),
		doc("bcs-50-b", model.CivilServiceClass{Batch: 50}, 2025, ""),
	}
}

var (
	student = &model.SessionUser{ID: "u1", Role: model.UserRoleUser}
	admin   = &model.SessionUser{ID: "a1", Role: model.UserRoleAdmin}
)

func approved(scope model.ScopeKey) []model.UnlockRequest {
	return []model.UnlockRequest{{AccountID: "u1", Scope: scope, PaymentStatus: model.PaymentApproved, UnlockStatus: true}}
}

func ids(docs []model.Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ID)
	}
	return out
}

func segments(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Segment)
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestResolveBranches(t *testing.T) {
	rt := NewRouter(testCatalog())
	tests := []struct {
		name  string
		path  []string
		count int
		first string
	}{
		{"root", nil, 4, "SSC"},
		{"ssc boards", []string{"SSC"}, 11, "Dhaka Board"},
		{"ssc groups", []string{"SSC", "Dhaka Board"}, 4, "Arts"},
		{"ssc years", []string{"SSC", "Dhaka Board", "Science"}, 12, "2025"},
		{"nu programs", []string{"NU"}, 4, "Professionals"},
		{"nu departments", []string{"NU", "Professionals"}, 3, "CSE"},
		{"nu semesters", []string{"NU", "Professionals", "CSE"}, 8, "Semester-1"},
		{"nu semester years", []string{"NU", "Professionals", "CSE", "Semester-1"}, 12, "2025"},
		{"nu honours years", []string{"NU", "Honours"}, 12, "2025"},
		{"bcs groups", []string{"BCS"}, 1, "Preliminary"},
		{"bcs batches", []string{"BCS", "Preliminary"}, 50, "50th BCS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := rt.Resolve(tt.path, nil, nil)
			if err != nil {
				t.Fatal(err)
			}
			if n.Kind != KindBranch {
				t.Fatalf("expected branch, got %s", n.Kind)
			}
			if len(n.Children) != tt.count {
				t.Errorf("expected %d children, got %d", tt.count, len(n.Children))
			}
			if n.Children[0].Segment != tt.first {
				t.Errorf("expected first child %q, got %q", tt.first, n.Children[0].Segment)
			}
		})
	}
}

func TestYearEntriesLocked(t *testing.T) {
	rt := NewRouter(testCatalog())
	n, _ := rt.Resolve([]string{"SSC", "Dhaka Board", "Science"}, student, nil)
	for _, e := range n.Children {
		free := e.Segment == "2025" || e.Segment == "2024"
		if e.Locked == free {
			t.Errorf("year %s: expected locked=%v", e.Segment, !free)
		}
	}

	n, _ = rt.Resolve([]string{"SSC", "Dhaka Board", model.GroupModelTest}, nil, nil)
	for _, e := range n.Children {
		if e.Locked {
			t.Errorf("expected model test year %s to be open", e.Segment)
		}
	}

	n, _ = rt.Resolve([]string{"BCS", "Preliminary"}, student, nil)
	for _, e := range n.Children {
		b, _ := ParseBatch(e.Segment)
		if e.Locked != (b < 49) {
			t.Errorf("batch %d: expected locked=%v", b, b < 49)
		}
	}
}

func TestResolveLocked(t *testing.T) {
	rt := NewRouter(testCatalog())
	tests := []struct {
		name string
		path []string
		want model.ScopeKey
	}{
		{
			"ssc 2023",
			[]string{"SSC", "Dhaka Board", "Science", "2023"},
			model.ScopeKey{ExamType: model.CategorySSC, BoardName: "Dhaka Board", GroupOrProgram: "Science"},
		},
		{
			"below locked year",
			[]string{"SSC", "Dhaka Board", "Science", "2023", "Physics"},
			model.ScopeKey{ExamType: model.CategorySSC, BoardName: "Dhaka Board", GroupOrProgram: "Science"},
		},
		{
			"nu professionals",
			[]string{"NU", "Professionals", "CSE", "Semester-1", "2021"},
			model.ScopeKey{ExamType: model.CategoryNU, GroupOrProgram: "CSE"},
		},
		{
			"nu honours",
			[]string{"NU", "Honours", "2019"},
			model.ScopeKey{ExamType: model.CategoryNU, GroupOrProgram: "Honours"},
		},
		{
			"bcs 44",
			[]string{"BCS", "Preliminary", "44th BCS"},
			model.ScopeKey{ExamType: model.CategoryBCS, GroupOrProgram: "Preliminary"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := rt.Resolve(tt.path, student, nil)
			if err != nil {
				t.Fatal(err)
			}
			if n.Kind != KindLocked || n.Lock == nil {
				t.Fatalf("expected locked node, got %s", n.Kind)
			}
			if *n.Lock != tt.want {
				t.Errorf("expected scope %+v, got %+v", tt.want, *n.Lock)
			}
			if len(n.Documents) != 0 {
				t.Error("expected no documents on a locked node")
			}
		})
	}
}

func TestResolveDocuments(t *testing.T) {
	rt := NewRouter(testCatalog())
	tests := []struct {
		name    string
		path    []string
		viewer  *model.SessionUser
		unlocks []model.UnlockRequest
		want    []string
	}{
		{
			"free year includes subjectless",
			[]string{"SSC", "Dhaka Board", "Science", "2024", "Physics"},
			nil, nil,
			[]string{"ssc-phy-24", "ssc-nosub-24"},
		},
		{
			"unlocked year",
			[]string{"SSC", "Dhaka Board", "Science", "2023", "Physics"},
			student,
			approved(model.ScopeKey{ExamType: model.CategorySSC, BoardName: "Dhaka Board", GroupOrProgram: "Science"}),
			[]string{"ssc-phy-23"},
		},
		{
			"admin sees locked year",
			[]string{"SSC", "Dhaka Board", "Science", "2023", "Physics"},
			admin, nil,
			[]string{"ssc-phy-23"},
		},
		{
			"model test spans groups",
			[]string{"HSC", "Dhaka Board", model.GroupModelTest, "2021", "Physics 1st Paper"},
			nil, nil,
			[]string{"hsc-model-21", "hsc-sci-21"},
		},
		{
			"nu professionals",
			[]string{"NU", "Professionals", "CSE", "Semester-1", "2021", "Programming"},
			student,
			approved(model.ScopeKey{ExamType: model.CategoryNU, GroupOrProgram: "CSE"}),
			[]string{"nu-prog-21"},
		},
		{
			"nu honours",
			[]string{"NU", "Honours", "2024", "Bangla 1st Paper"},
			nil, nil,
			[]string{"nu-hon-24"},
		},
		{
			"bcs subject",
			[]string{"BCS", "Preliminary", "49th BCS", "General Science"},
			nil, nil,
			[]string{"bcs-49-gs"},
		},
		{
			"bcs without subjects lists documents",
			[]string{"BCS", "Preliminary", "50"},
			nil, nil,
			[]string{"bcs-50-a", "bcs-50-b"},
		},
		{
			"empty slice",
			[]string{"SSC", "Dhaka Board", "Commerce", "2025", "Accounting"},
			nil, nil,
			[]string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := rt.Resolve(tt.path, tt.viewer, tt.unlocks)
			if err != nil {
				t.Fatal(err)
			}
			if n.Kind != KindDocuments {
				t.Fatalf("expected documents, got %s", n.Kind)
			}
			if got := ids(n.Documents); !equal(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestResolveSubjects(t *testing.T) {
	rt := NewRouter(testCatalog())

	n, _ := rt.Resolve([]string{"SSC", "Dhaka Board", "Arts", "2024"}, nil, nil)
	if n.Kind != KindBranch || len(n.Children) != 15 {
		t.Fatalf("expected 15 arts subjects, got %s with %d", n.Kind, len(n.Children))
	}
	if n.Children[5].Label != "Geography" || n.Children[5].Code != "110" {
		t.Errorf("expected Geography (110), got %+v", n.Children[5])
	}

	n, _ = rt.Resolve([]string{"HSC", "Dhaka Board", model.GroupModelTest, "2021"}, nil, nil)
	got := segments(n.Children)
	want := []string{"Bangla 1st Paper", "Bangla 2nd Paper", "English 1st Paper", "English 2nd Paper", "Mathematics", "Physics 1st Paper"}
	if !equal(got, want) {
		t.Errorf("expected generic subjects plus catalog extras %v, got %v", want, got)
	}

	n, _ = rt.Resolve([]string{"NU", "Professionals", "CSE", "Semester-1", "2025"}, nil, nil)
	if n.Kind != KindBranch || len(n.Children) != 0 {
		t.Errorf("expected empty derived subject list, got %s %v", n.Kind, segments(n.Children))
	}

	n, _ = rt.Resolve([]string{"BCS", "Preliminary", "44th BCS"}, admin, nil)
	if got := segments(n.Children); !equal(got, []string{"Bangla"}) {
		t.Errorf("expected [Bangla], got %v", got)
	}
}

func TestResolveNotFound(t *testing.T) {
	rt := NewRouter(testCatalog())
	paths := [][]string{
		{"JSC"},
		{"SSC", "Nowhere Board"},
		{"SSC", "Dhaka Board", "Physics"},
		{"SSC", "Dhaka Board", "Science", "2013"},
		{"SSC", "Dhaka Board", "Science", "abc"},
		{"SSC", "Dhaka Board", "Science", "2024", "Underwater Basket Weaving"},
		{"SSC", "Dhaka Board", "Science", "2024", "Physics", "extra"},
		{"NU", "PhD"},
		{"NU", "Professionals", "LAW"},
		{"NU", "Professionals", "CSE", "Semester-9"},
		{"BCS", "Written"},
		{"BCS", "Preliminary", "51st BCS"},
		{"BCS", "Preliminary", "0"},
	}
	for _, p := range paths {
		t.Run(fmt.Sprint(p), func(t *testing.T) {
			n, err := rt.Resolve(p, admin, nil)
			if err != nil {
				t.Fatal(err)
			}
			if n.Kind != KindNotFound {
				t.Errorf("expected not_found, got %s", n.Kind)
			}
		})
	}
}

func TestBatchLabels(t *testing.T) {
	tests := map[int]string{1: "1st BCS", 2: "2nd BCS", 3: "3rd BCS", 11: "11th BCS", 12: "12th BCS", 22: "22nd BCS", 44: "44th BCS"}
	for n, want := range tests {
		if got := BatchLabel(n); got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
		if b, ok := ParseBatch(want); !ok || b != n {
			t.Errorf("ParseBatch(%q): expected %d, got %d", want, n, b)
		}
	}
}

func TestSubjectsLists(t *testing.T) {
	tests := []struct {
		cat   model.Category
		group string
		count int
	}{
		{model.CategorySSC, "Arts", 15},
		{model.CategorySSC, "Science", 10},
		{model.CategorySSC, "Commerce", 10},
		{model.CategoryHSC, "Science", 13},
		{model.CategoryHSC, "Commerce", 13},
		{model.CategoryHSC, "Arts", 17},
		{model.CategorySSC, model.GroupModelTest, 5},
		{model.CategoryNU, "Honours", 5},
	}
	for _, tt := range tests {
		if got := len(Subjects(tt.cat, tt.group)); got != tt.count {
			t.Errorf("%s %s: expected %d subjects, got %d", tt.cat, tt.group, tt.count, got)
		}
	}
}

func TestNormalizeQuery(t *testing.T) {
	if got := NormalizeQuery("  PHYSICS \t  2023\n"); got != "physics 2023" {
		t.Errorf("expected %q, got %q", "physics 2023", got)
	}
}

func TestModelTestListingRedactsLockedDocuments(t *testing.T) {
	rt := NewRouter(testCatalog())
	path := []string{"HSC", "Dhaka Board", model.GroupModelTest, "2021", "Physics 1st Paper"}

	n, err := rt.Resolve(path, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !equal(n.LockedIDs, []string{"hsc-sci-21"}) {
		t.Errorf("expected [hsc-sci-21] locked, got %v", n.LockedIDs)
	}
	for _, d := range n.Documents {
		locked := d.ID == "hsc-sci-21"
		if locked && d.URL != "" {
			t.Errorf("%s: expected redacted url, got %q", d.ID, d.URL)
		}
		if !locked && d.URL == "" {
			t.Errorf("%s: expected url, got none", d.ID)
		}
	}

	n, err = rt.Resolve(path, admin, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(n.LockedIDs) != 0 {
		t.Errorf("expected nothing locked for admin, got %v", n.LockedIDs)
	}
	for _, d := range n.Documents {
		if d.URL == "" {
			t.Errorf("%s: expected url for admin, got none", d.ID)
		}
	}
}

func TestSearchRedactsLockedHits(t *testing.T) {
	rt := NewRouter(testCatalog())
	hits, err := rt.Search(SearchQuery{Text: "physics"}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, h := range hits {
		if h.Locked && h.Document.URL != "" {
			t.Errorf("%s: expected locked hit without url, got %q", h.Document.ID, h.Document.URL)
		}
		if !h.Locked && h.Document.URL == "" {
			t.Errorf("%s: expected open hit with url, got none", h.Document.ID)
		}
	}
	if h := NewHit(testCatalog()[0], admin, nil); h.Locked || h.Document.URL == "" {
		t.Errorf("expected admin hit to be open with url, got %+v", h)
	}
}

func TestSearch(t *testing.T) {
	rt := NewRouter(testCatalog())
	tests := []struct {
		name string
		q    SearchQuery
		want []string
	}{
		{"empty", SearchQuery{Text: "   "}, nil},
		{"single term", SearchQuery{Text: "physics"}, []string{"ssc-phy-23", "ssc-phy-24", "hsc-model-21", "hsc-sci-21"}},
		{"and terms", SearchQuery{Text: "Physics   2023"}, []string{"ssc-phy-23"}},
		{"no match", SearchQuery{Text: "physics chemistry"}, nil},
		{"category filter", SearchQuery{Text: "physics", Category: model.CategoryHSC}, []string{"hsc-model-21", "hsc-sci-21"}},
		{"group filter", SearchQuery{Category: model.CategoryHSC, Group: "Science"}, []string{"hsc-sci-21"}},
		{"year filter only", SearchQuery{Year: 2021}, []string{"hsc-model-21", "hsc-sci-21", "nu-prog-21"}},
		{"nu professionals", SearchQuery{Category: model.CategoryNU, Group: "Professionals"}, []string{"nu-prog-21"}},
		{"nu department", SearchQuery{Category: model.CategoryNU, Group: "Professionals", Department: "BBA"}, nil},
		{"nu program", SearchQuery{Category: model.CategoryNU, Group: "Honours"}, []string{"nu-hon-24"}},
		{"board filter", SearchQuery{Text: "geography", Category: model.CategorySSC, Board: "Rajshahi Board"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, err := rt.Search(tt.q, nil, nil)
			if err != nil {
				t.Fatal(err)
			}
			got := make([]string, 0, len(hits))
			for _, h := range hits {
				got = append(got, h.Document.ID)
			}
			if !equal(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestSearchCapsAndAnnotates(t *testing.T) {
	var c catalog
	for i := 0; i < 30; i++ {
		c = append(c, doc(fmt.Sprintf("p%02d", i), dhakaScience, 2014+i%12, "Physics"))
	}
	rt := NewRouter(c)
	hits, err := rt.Search(SearchQuery{Text: "physics"}, student, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != MaxResults {
		t.Fatalf("expected %d hits, got %d", MaxResults, len(hits))
	}
	for _, h := range hits {
		free := h.Document.Year == 2024 || h.Document.Year == 2025
		if h.Locked == free {
			t.Errorf("%s (%d): expected locked=%v", h.Document.ID, h.Document.Year, !free)
		}
		if h.Scope.BoardName != "Dhaka Board" || h.Scope.GroupOrProgram != "Science" {
			t.Errorf("unexpected scope %+v", h.Scope)
		}
	}
}
