package models

import (
	"html/template"
	"strings"
	"time"

	"github.com/magfest/uber/internal/config"
)

// SeasonPassTicket ties a season pass holder to one event.
type SeasonPassTicket struct {
	MagModel
	FKID string `gorm:"column:fk_id;type:varchar(36);index" uber:"uuid"`
	Slug string
}

func (SeasonPassTicket) TableName() string { return "season_pass_ticket" }

// PrevSeasonSupporter is a season supporter carried over from a previous
// year.
type PrevSeasonSupporter struct {
	MagModel
	FirstName string
	LastName  string
	Email     string
}

func (PrevSeasonSupporter) TableName() string { return "prev_season_supporter" }

func (p *PrevSeasonSupporter) Describe() string {
	return "<PrevSeasonSupporter " + p.FirstName + " " + p.LastName + " " + p.Email + ">"
}

// ApprovedEmail records that an automated email's subject was approved to
// be sent.
type ApprovedEmail struct {
	MagModel
	Subject string
}

func (ApprovedEmail) TableName() string { return "approved_email" }

func (a *ApprovedEmail) Describe() string { return "<ApprovedEmail " + a.Subject + ">" }

// Email is a copy of a message that was sent.
type Email struct {
	MagModel
	FKID    *string `gorm:"column:fk_id;type:varchar(36);index" uber:"uuid"`
	Model   string
	When    time.Time
	Subject string
	Dest    string
	Body    string
}

func (Email) TableName() string { return "email" }

func (e *Email) SetDefaults() { e.When = config.Now().UTC() }

func (e *Email) Describe() string { return "<Email " + e.Subject + ">" }

// HTML is the body for display: the inside of <body> for HTML mail, the
// text with line breaks otherwise.
func (e *Email) HTML() template.HTML {
	if _, after, ok := strings.Cut(e.Body, "<body>"); ok {
		inner, _, _ := strings.Cut(after, "</body>")
		return template.HTML(inner)
	}
	return template.HTML(strings.ReplaceAll(e.Body, "\n", "<br/>"))
}
