// Package recipients maps regional group titles to the people who receive
// that region's report (the "PIC" sheet).
package recipients

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/areamail-cli/internal/sheet"
)

// Contact lists the addresses for one region.
type Contact struct {
	To []string `json:"to"`
	Cc []string `json:"cc,omitempty"`
}

// Empty reports whether the contact has no primary recipient.
func (c Contact) Empty() bool { return len(c.To) == 0 }

// Directory resolves group titles to contacts with a fallback.
type Directory struct {
	entries  map[string]Contact
	fallback Contact
}

// NewDirectory returns an empty directory that answers every lookup with fallback.
func NewDirectory(fallback Contact) *Directory {
	return &Directory{entries: map[string]Contact{}, fallback: fallback}
}

// Add registers a contact for an area title. Later entries for the same area
// are merged.
func (d *Directory) Add(area string, c Contact) {
	k := key(area)
	if k == "" {
		return
	}
	cur := d.entries[k]
	cur.To = appendUnique(cur.To, c.To...)
	cur.Cc = appendUnique(cur.Cc, c.Cc...)
	d.entries[k] = cur
}

// Lookup returns the contact for title, or the fallback. A matched entry
// without Cc inherits the fallback Cc.
func (d *Directory) Lookup(title string) (Contact, bool) {
	c, ok := d.entries[key(title)]
	if !ok || c.Empty() {
		return d.fallback, false
	}
	if len(c.Cc) == 0 {
		c.Cc = d.fallback.Cc
	}
	return c, true
}

// Len is the number of known areas.
func (d *Directory) Len() int { return len(d.entries) }

// Load reads a PIC sheet. The first record is the header; columns named
// AREA, TO (or EMAIL) and CC are located by name, otherwise the first three
// columns are used in that order.
func Load(path string, sel sheet.Selector, fallback Contact) (*Directory, error) {
	records, err := sheet.ReadFile(path, sel)
	if err != nil {
		return nil, fmt.Errorf("read recipients: %w", err)
	}
	d := NewDirectory(fallback)
	if len(records) == 0 {
		return d, nil
	}
	area, to, cc := 0, 1, 2
	body := records
	if a, t, c, ok := headerColumns(records[0]); ok {
		area, to, cc = a, t, c
		body = records[1:]
	}
	for _, rec := range body {
		get := func(i int) string {
			if i < 0 || i >= len(rec) {
				return ""
			}
			return rec[i]
		}
		d.Add(get(area), Contact{To: ParseAddresses(get(to)), Cc: ParseAddresses(get(cc))})
	}
	return d, nil
}

func headerColumns(h []string) (area, to, cc int, ok bool) {
	area, to, cc = -1, -1, -1
	for i, name := range h {
		switch strings.ToUpper(strings.TrimSpace(name)) {
		case "AREA":
			area = i
		case "TO", "EMAIL", "EMAIL_TO":
			to = i
		case "CC", "EMAIL_CC":
			cc = i
		}
	}
	return area, to, cc, area >= 0 && to >= 0
}

// ParseAddresses splits a cell holding several addresses separated by
// commas, semicolons, tabs or line breaks. Spaces stay inside an entry so
// "Name <addr>" forms survive.
func ParseAddresses(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n' || r == '\r' || r == '\t'
	})
	return appendUnique(nil, fields...)
}

func appendUnique(dst []string, vals ...string) []string {
	for _, v := range vals {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		dup := false
		for _, e := range dst {
			if strings.EqualFold(e, v) {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, v)
		}
	}
	return dst
}

func key(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}
