package model

import (
	"strings"
	"text/template"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/nswatch/pkg/domain/types"
)

// Templates holds the per-tier notification texts. Each entry is a
// text/template parametrized by Name, DaysLeft and ExpiresAt. Operators can
// override individual tiers from a TOML file; unspecified tiers keep the
// defaults.
type Templates struct {
	notices map[types.UrgencyLevel]*template.Template
}

// noticeParams is the data bound into a tier template
type noticeParams struct {
	Name      string
	DaysLeft  int
	ExpiresAt string
}

var defaultNotices = map[types.UrgencyLevel]string{
	types.Level30Days:  "Heads up: *{{.Name}}* expires in {{.DaysLeft}} days, on {{.ExpiresAt}}.",
	types.Level14Days:  "Reminder: *{{.Name}}* expires in {{.DaysLeft}} days, on {{.ExpiresAt}}.",
	types.Level3Days:   "Only {{.DaysLeft}} days left! *{{.Name}}* expires on {{.ExpiresAt}}.",
	types.Level1Day:    "Last call: *{{.Name}}* expires within a day, on {{.ExpiresAt}}.",
	types.LevelExpired: "*{{.Name}}* has expired ({{.ExpiresAt}}). It may be claimed by someone else soon.",
}

// DefaultTemplates returns the built-in tier templates
func DefaultTemplates() *Templates {
	t := &Templates{notices: make(map[types.UrgencyLevel]*template.Template, len(defaultNotices))}
	for level, text := range defaultNotices {
		// Defaults are compile-time constants; a parse failure is a bug.
		t.notices[level] = template.Must(template.New(level.String()).Parse(text))
	}
	return t
}

// Override replaces the template of one tier
func (t *Templates) Override(level types.UrgencyLevel, text string) error {
	if !level.IsValid() {
		return goerr.New("unknown urgency level", goerr.V("level", level.String()))
	}
	tmpl, err := template.New(level.String()).Parse(text)
	if err != nil {
		return goerr.Wrap(err, "failed to parse notice template", goerr.V("level", level.String()))
	}
	t.notices[level] = tmpl
	return nil
}

// RenderNotice renders the notification text for one escalation
func (t *Templates) RenderNotice(level types.UrgencyLevel, name types.TrackedName, daysLeft int, expiresAt time.Time) (string, error) {
	tmpl, ok := t.notices[level]
	if !ok {
		return "", goerr.New("no template for urgency level", goerr.V("level", level.String()))
	}

	var sb strings.Builder
	err := tmpl.Execute(&sb, noticeParams{
		Name:      name.String(),
		DaysLeft:  daysLeft,
		ExpiresAt: expiresAt.UTC().Format("2006-01-02"),
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to render notice", goerr.V("level", level.String()))
	}
	return sb.String(), nil
}
