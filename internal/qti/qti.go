// Package qti generates QTI 1.2 assessment XML from a validated document and
// packages the result as an importable zip.
package qti

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dshills/quizforge/internal/schema"
)

// typeProfiles maps canonical question types to the QTI item profile used
// for rendering and response processing.
var typeProfiles = map[string]string{
	"multiple_choice":   "multiple_choice_question",
	"multiple_answer":   "multiple_answers_question",
	"true_false":        "true_false_question",
	"short_answer":      "short_answer_question",
	"fill_in_the_blank": "fill_in_multiple_blanks_question",
	"matching":          "matching_question",
	"numerical":         "numerical_question",
	"essay":             "essay_question",
}

type questestinterop struct {
	XMLName    xml.Name   `xml:"questestinterop"`
	Assessment assessment `xml:"assessment"`
}

type assessment struct {
	Ident   string  `xml:"ident,attr"`
	Title   string  `xml:"title,attr"`
	Section section `xml:"section"`
}

type section struct {
	Ident string `xml:"ident,attr"`
	Items []item `xml:"item"`
}

type item struct {
	Ident        string         `xml:"ident,attr"`
	Title        string         `xml:"title,attr"`
	Metadata     itemMetadata   `xml:"itemmetadata"`
	Presentation presentation   `xml:"presentation"`
	Processing   *resprocessing `xml:"resprocessing,omitempty"`
	Feedback     *itemfeedback  `xml:"itemfeedback,omitempty"`
}

type itemMetadata struct {
	Fields []metaField `xml:"qtimetadata>qtimetadatafield"`
}

type metaField struct {
	Label string `xml:"fieldlabel"`
	Entry string `xml:"fieldentry"`
}

type presentation struct {
	Material material     `xml:"material"`
	Response *responseLid `xml:"response_lid,omitempty"`
}

type material struct {
	Text matText `xml:"mattext"`
}

type matText struct {
	Type string `xml:"texttype,attr"`
	Body string `xml:",chardata"`
}

type responseLid struct {
	Ident       string  `xml:"ident,attr"`
	Cardinality string  `xml:"rcardinality,attr"`
	Labels      []label `xml:"render_choice>response_label"`
}

type label struct {
	Ident    string   `xml:"ident,attr"`
	Material material `xml:"material"`
}

type resprocessing struct {
	Conditions []respcondition `xml:"respcondition"`
}

type respcondition struct {
	Continue string   `xml:"continue,attr"`
	Equal    varequal `xml:"conditionvar>varequal"`
	SetVar   setvar   `xml:"setvar"`
}

type varequal struct {
	RespIdent string `xml:"respident,attr"`
	Value     string `xml:",chardata"`
}

type setvar struct {
	Name   string `xml:"varname,attr"`
	Action string `xml:"action,attr"`
	Value  string `xml:",chardata"`
}

type itemfeedback struct {
	Ident    string   `xml:"ident,attr"`
	Material material `xml:"material"`
}

// Generate renders doc as a QTI 1.2 artifact containing the assessment XML
// and an IMS manifest. The document must already have passed validation.
func Generate(doc *schema.Document) (*schema.Artifact, error) {
	if doc == nil || len(doc.Questions) == 0 {
		return nil, fmt.Errorf("qti: nothing to generate")
	}

	title := doc.Title
	if title == "" {
		title = "Untitled Assessment"
	}
	ident := slug(title)

	qa := questestinterop{
		Assessment: assessment{
			Ident:   ident,
			Title:   title,
			Section: section{Ident: "root_section"},
		},
	}
	for _, q := range doc.Questions {
		qa.Assessment.Section.Items = append(qa.Assessment.Section.Items, buildItem(q))
	}

	body, err := xml.MarshalIndent(qa, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("qti: marshal assessment: %w", err)
	}
	assessmentXML := append([]byte(xml.Header), body...)

	manifest, err := buildManifest(ident, title)
	if err != nil {
		return nil, err
	}

	return &schema.Artifact{
		Title: title,
		Files: []schema.ArtifactFile{
			{Name: "imsmanifest.xml", Data: manifest},
			{Name: ident + "/assessment.xml", Data: assessmentXML},
		},
	}, nil
}

func buildItem(q schema.Question) item {
	profile := typeProfiles[q.Type]
	if profile == "" {
		profile = q.Type
	}
	it := item{
		Ident: q.ID,
		Title: q.ID,
		Metadata: itemMetadata{Fields: []metaField{
			{Label: "question_type", Entry: profile},
			{Label: "points_possible", Entry: fmt.Sprintf("%g", q.Points)},
		}},
		Presentation: presentation{
			Material: material{Text: matText{Type: "text/html", Body: q.Text}},
		},
	}
	if len(q.Tags) > 0 {
		it.Metadata.Fields = append(it.Metadata.Fields, metaField{
			Label: "tags", Entry: strings.Join(q.Tags, ","),
		})
	}

	if len(q.Options) > 0 {
		cardinality := "Single"
		if q.Type == "multiple_answer" {
			cardinality = "Multiple"
		}
		lid := &responseLid{Ident: "response1", Cardinality: cardinality}
		proc := &resprocessing{}
		for i, o := range q.Options {
			optIdent := fmt.Sprintf("%s_a%d", q.ID, i+1)
			lid.Labels = append(lid.Labels, label{
				Ident:    optIdent,
				Material: material{Text: matText{Type: "text/plain", Body: o.Text}},
			})
			if o.Correct {
				proc.Conditions = append(proc.Conditions, respcondition{
					Continue: "No",
					Equal:    varequal{RespIdent: "response1", Value: optIdent},
					SetVar:   setvar{Name: "SCORE", Action: "Set", Value: fmt.Sprintf("%g", q.Points)},
				})
			}
		}
		it.Presentation.Response = lid
		it.Processing = proc
	}

	if q.Feedback != "" {
		it.Feedback = &itemfeedback{
			Ident:    "general_fb",
			Material: material{Text: matText{Type: "text/html", Body: q.Feedback}},
		}
	}
	return it
}

type imsManifest struct {
	XMLName    xml.Name      `xml:"manifest"`
	Identifier string        `xml:"identifier,attr"`
	Xmlns      string        `xml:"xmlns,attr"`
	Resources  []imsResource `xml:"resources>resource"`
}

type imsResource struct {
	Identifier string  `xml:"identifier,attr"`
	Type       string  `xml:"type,attr"`
	Href       string  `xml:"href,attr"`
	File       imsFile `xml:"file"`
}

type imsFile struct {
	Href string `xml:"href,attr"`
}

func buildManifest(ident, title string) ([]byte, error) {
	m := imsManifest{
		Identifier: ident + "_manifest",
		Xmlns:      "http://www.imsglobal.org/xsd/imscp_v1p1",
		Resources: []imsResource{{
			Identifier: ident,
			Type:       "imsqti_xmlv1p2",
			Href:       ident + "/assessment.xml",
			File:       imsFile{Href: ident + "/assessment.xml"},
		}},
	}
	body, err := xml.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("qti: marshal manifest: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}

// Package writes art as a zip under destDir and returns the zip path.
// The write is atomic: the zip is assembled in a temp file and renamed into
// place, so a failed run leaves no partial package behind.
func Package(art *schema.Artifact, destDir string) (string, error) {
	if art == nil || len(art.Files) == 0 {
		return "", fmt.Errorf("qti: empty artifact")
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("qti: create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(destDir, ".qti-*.zip")
	if err != nil {
		return "", fmt.Errorf("qti: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after successful rename

	zw := zip.NewWriter(tmp)
	for _, f := range art.Files {
		w, err := zw.Create(f.Name)
		if err != nil {
			tmp.Close()
			return "", fmt.Errorf("qti: zip entry %s: %w", f.Name, err)
		}
		if _, err := w.Write(f.Data); err != nil {
			tmp.Close()
			return "", fmt.Errorf("qti: write %s: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("qti: finalize zip: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("qti: close temp file: %w", err)
	}

	dest := filepath.Join(destDir, slug(art.Title)+".zip")
	if err := os.Rename(tmpName, dest); err != nil {
		return "", fmt.Errorf("qti: rename package: %w", err)
	}
	return dest, nil
}

// slug converts a title into a filesystem- and ident-safe token.
func slug(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash && b.Len() > 0 {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "assessment"
	}
	return out
}
