// Package report renders one HTML email body per regional group.
package report

import (
	"bytes"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/KaramelBytes/areamail-cli/internal/normalize"
	"github.com/Masterminds/sprig/v3"
)

// Options controls the generated text.
type Options struct {
	// Sentinel is removed from group labels to form the display title.
	Sentinel        string
	Organization    string
	Intro           string
	SubjectTemplate string
}

// DefaultOptions returns the wording used for the regional leads mailing.
func DefaultOptions() Options {
	return Options{
		Sentinel:        normalize.DefaultGroupSentinel,
		Organization:    "FIFGROUP",
		Intro:           "Data Good Customer telah tersedia.",
		SubjectTemplate: DefaultSubjectTemplate,
	}
}

// Group is the ordered set of data rows sharing one label.
type Group struct {
	Label string
	Rows  []normalize.DataRow
}

// Report is the rendered output for a single group.
type Report struct {
	Group   string
	Title   string
	Subject string
	Body    string
	Rows    []normalize.DataRow
}

// Generator renders reports. It holds only parsed templates and is safe for
// concurrent use.
type Generator struct {
	opt     Options
	body    *htmltemplate.Template
	subject *texttemplate.Template
}

// NewGenerator parses the body and subject templates.
func NewGenerator(opt Options) (*Generator, error) {
	if strings.TrimSpace(opt.SubjectTemplate) == "" {
		opt.SubjectTemplate = DefaultSubjectTemplate
	}
	body, err := htmltemplate.New("body").Funcs(sprig.FuncMap()).Parse(bodyTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse body template: %w", err)
	}
	subject, err := texttemplate.New("subject").Option("missingkey=error").Funcs(sprig.TxtFuncMap()).Parse(opt.SubjectTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse subject template: %w", err)
	}
	return &Generator{opt: opt, body: body, subject: subject}, nil
}

// Partition groups rows by label in order of first appearance. Row order
// inside a group follows the input.
func Partition(rows []normalize.DataRow) []Group {
	var groups []Group
	index := map[string]int{}
	for _, r := range rows {
		i, ok := index[r.Group]
		if !ok {
			i = len(groups)
			index[r.Group] = i
			groups = append(groups, Group{Label: r.Group})
		}
		groups[i].Rows = append(groups[i].Rows, r)
	}
	return groups
}

// Title returns the text following sentinel in label, trimmed. Labels that
// do not contain the sentinel are only trimmed.
func Title(label, sentinel string) string {
	label = strings.TrimSpace(label)
	if sentinel != "" {
		if _, after, ok := strings.Cut(label, sentinel); ok {
			return strings.TrimSpace(after)
		}
	}
	return label
}

// Generate renders one report per group in first-appearance order.
func (g *Generator) Generate(rows []normalize.DataRow) ([]Report, error) {
	groups := Partition(rows)
	out := make([]Report, 0, len(groups))
	for _, grp := range groups {
		rep, err := g.Render(grp)
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, nil
}

type view struct {
	Group        string
	Title        string
	Organization string
	Intro        string
	Rows         []normalize.DataRow
}

// Render produces the subject and body for a single group.
func (g *Generator) Render(grp Group) (Report, error) {
	if len(grp.Rows) == 0 {
		return Report{}, errors.New("group has no rows")
	}
	v := view{
		Group:        grp.Label,
		Title:        Title(grp.Label, g.opt.Sentinel),
		Organization: g.opt.Organization,
		Intro:        g.opt.Intro,
		Rows:         grp.Rows,
	}
	var body bytes.Buffer
	if err := g.body.Execute(&body, v); err != nil {
		return Report{}, fmt.Errorf("render body for %q: %w", v.Title, err)
	}
	var subject bytes.Buffer
	if err := g.subject.Execute(&subject, v); err != nil {
		return Report{}, fmt.Errorf("render subject for %q: %w", v.Title, err)
	}
	return Report{
		Group:   grp.Label,
		Title:   v.Title,
		Subject: strings.TrimSpace(subject.String()),
		Body:    body.String(),
		Rows:    grp.Rows,
	}, nil
}
