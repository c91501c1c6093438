// Package render produces the HTML fragments the feed page inserts as-is.
package render

import (
	"html/template"
	"strings"
	"time"

	"github.com/gurkanbulca/neighborhelp/internal/models"
)

const cardTemplate = `{{range .}}<div class='task' data-key='{{.Key}}'>
{{- if .LoggedIn}}<div class='help-overlay'><div class='exit-help'><a>&times;</a></div><a class='confirm-help'>CONFIRM</a></div>{{end -}}
<div class='task-container'><div class='task-header'><div class='user-nickname'>{{.OwnerNickname}}</div>
{{- if .LoggedIn}}{{if .IsOwn}}<div class='help-out disable-help' title='This is your own task'>HELP OUT</div>{{else}}<div class='help-out'>HELP OUT</div>{{end}}{{end -}}
</div><div class='task-content'>{{.Overview}}</div><div class='task-footer'><div class='task-category'>#{{.Category}}</div><div class='task-date-time'>{{.DateTime}}</div></div></div></div>
{{end}}`

// Card is one task as shown in the feed.
type Card struct {
	Key           string
	OwnerNickname string
	Overview      string
	Category      string
	DateTime      string
	// LoggedIn adds the help controls; IsOwn disables them.
	LoggedIn bool
	IsOwn    bool
}

type Renderer struct {
	tmpl *template.Template
	loc  *time.Location
}

// New returns a renderer formatting times in loc (UTC when nil).
func New(loc *time.Location) *Renderer {
	if loc == nil {
		loc = time.UTC
	}
	return &Renderer{
		tmpl: template.Must(template.New("cards").Parse(cardTemplate)),
		loc:  loc,
	}
}

// DateTime formats unix millis as HH:mm MM-dd-yyyy.
func (r *Renderer) DateTime(millis int64) string {
	return time.UnixMilli(millis).In(r.loc).Format(models.DateTimeLayout)
}

// Page renders the cards of one feed page.
func (r *Renderer) Page(cards []Card) (string, error) {
	var b strings.Builder
	if err := r.tmpl.Execute(&b, cards); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Pages renders every page. The result has one fragment per input page.
func (r *Renderer) Pages(pages [][]Card) ([]string, error) {
	out := make([]string, 0, len(pages))
	for _, p := range pages {
		html, err := r.Page(p)
		if err != nil {
			return nil, err
		}
		out = append(out, html)
	}
	return out, nil
}
