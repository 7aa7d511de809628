// Package templates renders the server's HTML pages as templ components.
package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// Cell is one rendered table cell.
type Cell struct {
	Text  string
	Class string // Status style class, empty for plain cells
}

// HeaderCell is a column heading. SortURL is empty for unsortable columns.
type HeaderCell struct {
	Label     string
	Direction string // "asc", "desc" or "none"
	SortURL   string
}

// TablePageData is everything the table page shows.
type TablePageData struct {
	Title       string
	Description string
	Endpoint    string
	Search      string
	Headers     []HeaderCell
	Rows        [][]Cell
	Page        int // 1-based
	TotalPages  int
	TotalItems  int
	PrevURL     string
	NextURL     string
	ExportURL   string
}

// TableLink is one entry on the dashboard.
type TableLink struct {
	Key         string
	Title       string
	Description string
}

// TableGroup is a dashboard section.
type TableGroup struct {
	Name   string
	Tables []TableLink
}

// html accumulates the first write error so components read top to bottom.
type html struct {
	w   io.Writer
	err error
}

func (h *html) raw(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

func (h *html) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *html) href(s string) {
	h.raw(` href="`)
	h.raw(templ.EscapeString(string(templ.URL(s))))
	h.raw(`"`)
}

const styles = `body{font-family:system-ui,sans-serif;margin:2rem;color:#1f2937}
table{border-collapse:collapse;width:100%}th,td{border-bottom:1px solid #e5e7eb;padding:.4rem .6rem;text-align:left}
th a{color:inherit;text-decoration:none}.pager{margin-top:1rem;display:flex;gap:1rem;align-items:center}
.status-success{color:#047857}.status-warning{color:#b45309}.status-danger{color:#b91c1c}
.status-info{color:#1d4ed8}.status-muted{color:#6b7280}
.alert{border:1px solid #fca5a5;background:#fef2f2;padding:.75rem;border-radius:.375rem}`

// layout wraps body in the page shell.
func layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>`)
		h.text(title)
		h.raw(`</title><style>`)
		h.raw(styles)
		h.raw(`</style></head><body>`)
		if h.err != nil {
			return h.err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		h.raw(`</body></html>`)
		return h.err
	})
}

// ErrorAlert renders an error message with its suggested action and code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<div class="alert" role="alert"><strong>`)
		h.text(message)
		h.raw(`</strong>`)
		if action != "" {
			h.raw(`<p>`)
			h.text(action)
			h.raw(`</p>`)
		}
		if code != "" {
			h.raw(`<small>Code: `)
			h.text(code)
			h.raw(`</small>`)
		}
		h.raw(`</div>`)
		return h.err
	})
}

// Dashboard lists the registered tables by group.
func Dashboard(groups []TableGroup) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<h1>Tables</h1>`)
		if len(groups) == 0 {
			h.raw(`<p>No tables are registered.</p>`)
		}
		for _, g := range groups {
			h.raw(`<section><h2>`)
			h.text(g.Name)
			h.raw(`</h2><ul>`)
			for _, t := range g.Tables {
				h.raw(`<li><a`)
				h.href("/table/" + t.Key)
				h.raw(`>`)
				h.text(t.Title)
				h.raw(`</a>`)
				if t.Description != "" {
					h.raw(` - `)
					h.text(t.Description)
				}
				h.raw(`</li>`)
			}
			h.raw(`</ul></section>`)
		}
		return h.err
	})
	return layout("Tables", body)
}

// TablePage renders one page of a table with sort links and a pager.
func TablePage(d TablePageData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<p><a href="/">All tables</a></p><h1>`)
		h.text(d.Title)
		h.raw(`</h1>`)
		if d.Description != "" {
			h.raw(`<p>`)
			h.text(d.Description)
			h.raw(`</p>`)
		}

		h.raw(`<form method="get"><input type="search" name="search" placeholder="Search" value="`)
		h.text(d.Search)
		h.raw(`"> <button type="submit">Search</button>`)
		if d.ExportURL != "" {
			h.raw(` <a`)
			h.href(d.ExportURL)
			h.raw(`>Export CSV</a>`)
		}
		h.raw(`</form>`)

		h.raw(`<table><thead><tr>`)
		for _, hc := range d.Headers {
			h.raw(`<th data-sort="`)
			h.text(hc.Direction)
			h.raw(`">`)
			if hc.SortURL != "" {
				h.raw(`<a`)
				h.href(hc.SortURL)
				h.raw(`>`)
				h.text(hc.Label)
				h.raw(sortArrow(hc.Direction))
				h.raw(`</a>`)
			} else {
				h.text(hc.Label)
			}
			h.raw(`</th>`)
		}
		h.raw(`</tr></thead><tbody>`)
		if len(d.Rows) == 0 {
			h.raw(fmt.Sprintf(`<tr><td colspan="%d">No rows found.</td></tr>`, max(len(d.Headers), 1)))
		}
		for _, row := range d.Rows {
			h.raw(`<tr>`)
			for _, c := range row {
				if c.Class != "" {
					h.raw(`<td class="`)
					h.text(c.Class)
					h.raw(`">`)
				} else {
					h.raw(`<td>`)
				}
				h.text(c.Text)
				h.raw(`</td>`)
			}
			h.raw(`</tr>`)
		}
		h.raw(`</tbody></table>`)

		h.raw(`<div class="pager">`)
		if d.PrevURL != "" {
			h.raw(`<a rel="prev"`)
			h.href(d.PrevURL)
			h.raw(`>Previous</a>`)
		}
		h.raw(fmt.Sprintf(`<span>Page %d of %d (%d rows)</span>`, d.Page, d.TotalPages, d.TotalItems))
		if d.NextURL != "" {
			h.raw(`<a rel="next"`)
			h.href(d.NextURL)
			h.raw(`>Next</a>`)
		}
		h.raw(`</div>`)
		return h.err
	})
	return layout(d.Title, body)
}

func sortArrow(direction string) string {
	switch direction {
	case "asc":
		return " &#9650;"
	case "desc":
		return " &#9660;"
	}
	return ""
}
