// Package taxonomy holds the fixed browse hierarchy and resolves breadcrumb
// paths and searches against the catalog.
package taxonomy

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pavelanni/questionbd/internal/model"
)

// Subject is a named paper with an optional board code.
type Subject struct {
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
}

// Boards are the education boards that issue SSC and HSC papers.
var Boards = []string{
	"Dhaka Board", "Rajshahi Board", "Comilla Board", "Jessore Board",
	"Chittagong Board", "Barisal Board", "Sylhet Board", "Dinajpur Board",
	"Mymensingh Board", "Madrasah Education Board", "Technical Education Board",
}

// SecondaryGroups are the streams of the boarded tracks.
var SecondaryGroups = []string{"Arts", "Commerce", "Science", model.GroupModelTest}

// Programs are the NU programs; only Professionals is split further.
var Programs = []string{model.ProgramProfessionals, "Honours", "Degree", "Masters"}

// Departments split the NU Professionals program.
var Departments = []string{"CSE", "BBA", "ECE"}

const (
	newestYear   = 2025
	oldestYear   = 2014
	semesterN    = 8
	newestBatch  = 50
	semesterWord = "Semester"
)

// Years lists browseable years, newest first.
func Years() []int {
	out := make([]int, 0, newestYear-oldestYear+1)
	for y := newestYear; y >= oldestYear; y-- {
		out = append(out, y)
	}
	return out
}

// Semesters returns the stored semester names "Semester 1".."Semester 8".
func Semesters() []string {
	out := make([]string, semesterN)
	for i := range out {
		out[i] = fmt.Sprintf("%s %d", semesterWord, i+1)
	}
	return out
}

// SemesterSegment turns "Semester 3" into the path form "Semester-3".
func SemesterSegment(name string) string {
	return strings.Replace(name, " ", "-", 1)
}

// ParseSemester accepts either form and returns the stored name.
func ParseSemester(seg string) (string, bool) {
	name := strings.Replace(seg, "-", " ", 1)
	for _, s := range Semesters() {
		if s == name {
			return s, true
		}
	}
	return "", false
}

// Batches lists civil-service batches, newest first.
func Batches() []int {
	out := make([]int, newestBatch)
	for i := range out {
		out[i] = newestBatch - i
	}
	return out
}

// BatchLabel renders a batch as "44th BCS".
func BatchLabel(n int) string {
	return ordinal(n) + " BCS"
}

// ParseBatch reads the leading number of "44", "44th" or "44th BCS".
func ParseBatch(seg string) (int, bool) {
	end := 0
	for end < len(seg) && seg[end] >= '0' && seg[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(seg[:end])
	if err != nil || n < 1 || n > newestBatch {
		return 0, false
	}
	return n, true
}

func ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}

func papers(names ...string) []Subject {
	out := make([]Subject, 0, 2*len(names))
	for _, n := range names {
		out = append(out, Subject{Name: n + " 1st Paper"}, Subject{Name: n + " 2nd Paper"})
	}
	return out
}

var genericSubjects = []Subject{
	{"Bangla 1st Paper", "101"},
	{"Bangla 2nd Paper", "102"},
	{"English 1st Paper", "107"},
	{"English 2nd Paper", "108"},
	{"Mathematics", "109"},
}

var (
	sscArts = append(append([]Subject{}, genericSubjects...),
		Subject{"Geography", "110"},
		Subject{"Civic & Citizenship", "140"},
		Subject{"Economics", "141"},
		Subject{"General Science", "127"},
		Subject{"Information & Technology", "154"},
		Subject{"Islam & Moral Education", "111"},
		Subject{"History of Bangladesh", "153"},
		Subject{"Agriculture Studies", "134"},
		Subject{"Home Science", "151"},
		Subject{"Music", "149"},
	)
	sscScience = append(append([]Subject{}, genericSubjects...),
		Subject{"Physics", "136"},
		Subject{"Chemistry", "137"},
		Subject{"Biology", "138"},
		Subject{"Higher Mathematics", "126"},
		Subject{"Information & Technology", "154"},
	)
	sscCommerce = append(append([]Subject{}, genericSubjects...),
		Subject{"Accounting", "146"},
		Subject{"Finance & Banking", "152"},
		Subject{"Business Entrepreneurship", "143"},
		Subject{"Information & Technology", "154"},
		Subject{"Economics", "141"},
	)

	hscCore = append(papers("Bangla", "English"),
		Subject{Name: "Information & Communication Technology (ICT)"})
	hscScience = append(append([]Subject{}, hscCore...),
		papers("Physics", "Chemistry", "Biology", "Higher Mathematics")...)
	hscCommerce = append(append([]Subject{}, hscCore...),
		papers("Accounting", "Finance, Banking & Insurance",
			"Business Organization & Management", "Production Management & Marketing")...)
	hscArts = append(append([]Subject{}, hscCore...),
		papers("History", "Civics", "Economics", "Islamic History & Culture",
			"Social Work", "Geography")...)
)

// Subjects returns the fixed subject list of a track and group. Groups
// without a list of their own, Model Test included, get the generic one.
func Subjects(c model.Category, group string) []Subject {
	var list []Subject
	switch c {
	case model.CategorySSC:
		switch group {
		case "Arts":
			list = sscArts
		case "Science":
			list = sscScience
		case "Commerce":
			list = sscCommerce
		}
	case model.CategoryHSC:
		switch group {
		case "Arts":
			list = hscArts
		case "Science":
			list = hscScience
		case "Commerce":
			list = hscCommerce
		}
	}
	if list == nil {
		list = genericSubjects
	}
	return append([]Subject(nil), list...)
}
