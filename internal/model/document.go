package model

import (
	"strconv"
	"time"
)

// Category is one of the fixed exam tracks.
type Category string

const (
	// CategorySSC is the secondary school certificate track.
	CategorySSC Category = "SSC"
	// CategoryHSC is the higher secondary certificate track.
	CategoryHSC Category = "HSC"
	// CategoryNU is the national university track.
	CategoryNU Category = "NU"
	// CategoryBCS is the civil service track.
	CategoryBCS Category = "BCS"
)

// Categories lists every track in display order.
var Categories = []Category{CategorySSC, CategoryHSC, CategoryNU, CategoryBCS}

// Valid reports whether c is a known track.
func (c Category) Valid() bool {
	switch c {
	case CategorySSC, CategoryHSC, CategoryNU, CategoryBCS:
		return true
	}
	return false
}

// HasBoards reports whether documents of this track are split by education board.
func (c Category) HasBoards() bool {
	return c == CategorySSC || c == CategoryHSC
}

const (
	// GroupModelTest marks practice exams that are free regardless of year.
	GroupModelTest = "Model Test"
	// GroupPreliminary is the only civil-service group.
	GroupPreliminary = "Preliminary"
	// ProgramProfessionals is the NU program split by department and semester.
	ProgramProfessionals = "Professionals"
)

// DocumentType tells the renderer how to display a document.
type DocumentType string

const (
	DocumentImage DocumentType = "image"
	DocumentPDF   DocumentType = "pdf"
)

// Valid reports whether t is a renderable type.
func (t DocumentType) Valid() bool {
	return t == DocumentImage || t == DocumentPDF
}

// Document is one past paper. Classification fields that do not apply to
// the category are left empty; use Class to get the typed view.
type Document struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Category    Category     `json:"category"`
	BoardName   string       `json:"board_name,omitempty"`
	Group       string       `json:"group,omitempty"`
	Department  string       `json:"department,omitempty"`
	Semester    string       `json:"semester,omitempty"`
	BCSNumber   int          `json:"bcs_number,omitempty"`
	Year        int          `json:"year,omitempty"`
	SubjectName string       `json:"subject_name,omitempty"`
	SubjectCode string       `json:"subject_code,omitempty"`
	Type        DocumentType `json:"type"`
	URL         string       `json:"url"`
	CreatedAt   time.Time    `json:"created_at"`
}

// IsModelTest reports whether the document belongs to the always-free practice group.
func (d Document) IsModelTest() bool {
	return d.Group == GroupModelTest
}

// Redacted returns a copy without the content URL, for listing a document
// the viewer may not open.
func (d Document) Redacted() Document {
	d.URL = ""
	return d
}

// SearchText is the text free-form search terms are matched against.
func (d Document) SearchText() string {
	year := ""
	if d.Year != 0 {
		year = strconv.Itoa(d.Year)
	}
	return d.SubjectName + " " + d.SubjectCode + " " + d.Title + " " + year
}

// Classification is the closed set of per-track classification variants.
type Classification interface {
	Category() Category
	apply(d *Document)
}

// SecondaryClass classifies SSC and HSC papers.
type SecondaryClass struct {
	Track Category
	Board string
	Group string
}

func (c SecondaryClass) Category() Category { return c.Track }

func (c SecondaryClass) apply(d *Document) {
	d.Category = c.Track
	d.BoardName = c.Board
	d.Group = c.Group
}

// UniversityClass classifies NU papers. Department and Semester are only
// set for the Professionals program.
type UniversityClass struct {
	Program    string
	Department string
	Semester   string
}

func (c UniversityClass) Category() Category { return CategoryNU }

func (c UniversityClass) apply(d *Document) {
	d.Category = CategoryNU
	d.Group = c.Program
	d.Department = c.Department
	d.Semester = c.Semester
}

// CivilServiceClass classifies BCS preliminary papers by batch.
type CivilServiceClass struct {
	Batch int
}

func (c CivilServiceClass) Category() Category { return CategoryBCS }

func (c CivilServiceClass) apply(d *Document) {
	d.Category = CategoryBCS
	d.Group = GroupPreliminary
	d.BCSNumber = c.Batch
}

// Class rebuilds the typed classification from the flat fields. It returns
// nil for an unknown category.
func (d Document) Class() Classification {
	switch d.Category {
	case CategorySSC, CategoryHSC:
		return SecondaryClass{Track: d.Category, Board: d.BoardName, Group: d.Group}
	case CategoryNU:
		c := UniversityClass{Program: d.Group}
		if d.Group == ProgramProfessionals || d.Group == "" {
			c.Department = d.Department
			c.Semester = d.Semester
		}
		return c
	case CategoryBCS:
		return CivilServiceClass{Batch: d.BCSNumber}
	}
	return nil
}

// DocumentContent is the non-classification part of a document.
type DocumentContent struct {
	Title       string
	Year        int
	SubjectName string
	SubjectCode string
	Type        DocumentType
	URL         string
}

// NewDocument builds a document whose classification fields are exactly
// those of the given variant.
func NewDocument(class Classification, content DocumentContent) Document {
	d := Document{
		Title:       content.Title,
		Year:        content.Year,
		SubjectName: content.SubjectName,
		SubjectCode: content.SubjectCode,
		Type:        content.Type,
		URL:         content.URL,
	}
	class.apply(&d)
	return d
}

// Normalize clears classification fields that do not apply to the
// document's category.
func (d Document) Normalize() Document {
	class := d.Class()
	if class == nil {
		return d
	}
	out := NewDocument(class, DocumentContent{
		Title:       d.Title,
		Year:        d.Year,
		SubjectName: d.SubjectName,
		SubjectCode: d.SubjectCode,
		Type:        d.Type,
		URL:         d.URL,
	})
	out.ID = d.ID
	out.CreatedAt = d.CreatedAt
	return out
}

// DocumentImport is used for loading catalog files from JSON.
type DocumentImport struct {
	Title       string       `json:"title"`
	Category    Category     `json:"category"`
	BoardName   string       `json:"boardName,omitempty"`
	Group       string       `json:"group,omitempty"`
	Department  string       `json:"department,omitempty"`
	Semester    string       `json:"semester,omitempty"`
	BCSNumber   int          `json:"bcsNumber,omitempty"`
	Year        int          `json:"year"`
	SubjectName string       `json:"subjectName,omitempty"`
	SubjectCode string       `json:"subjectCode,omitempty"`
	Type        DocumentType `json:"type"`
	URL         string       `json:"url"`
}

// Document converts an import row into a catalog document.
func (di DocumentImport) Document() Document {
	return Document{
		Title:       di.Title,
		Category:    di.Category,
		BoardName:   di.BoardName,
		Group:       di.Group,
		Department:  di.Department,
		Semester:    di.Semester,
		BCSNumber:   di.BCSNumber,
		Year:        di.Year,
		SubjectName: di.SubjectName,
		SubjectCode: di.SubjectCode,
		Type:        di.Type,
		URL:         di.URL,
	}.Normalize()
}
