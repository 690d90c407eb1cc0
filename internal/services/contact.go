package services

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"unicode"

	"github.com/magfest/uber/internal/db"
	"github.com/magfest/uber/internal/errs"
	"github.com/magfest/uber/internal/models"
)

var (
	reLetters = regexp.MustCompile(`[A-Za-z]`)
	// digits, spaces, dots and + - ( )
	reAllowed = regexp.MustCompile(`^[0-9+\-.\s()]+$`)
	reE164    = regexp.MustCompile(`^\+[1-9][0-9]{7,14}$`)
)

// NormEmail lowercases and trims an address. ok is false when a non-empty
// address does not parse.
func NormEmail(s string) (string, bool) {
	e := strings.TrimSpace(strings.ToLower(s))
	if e == "" {
		return "", true
	}
	_, err := mail.ParseAddress(e)
	return e, err == nil
}

// NormPhone normalizes a cellphone number to +<country><number>. Ten
// digit numbers are taken as North American. It returns "" for anything
// that is not a phone number.
func NormPhone(p string) string {
	s := strings.TrimSpace(p)
	if s == "" || reLetters.MatchString(s) || !reAllowed.MatchString(s) {
		return ""
	}

	plus := strings.HasPrefix(s, "+")
	d := digitsOnly(s)
	switch {
	case plus:
	case strings.HasPrefix(d, "00"):
		d = d[2:]
	case len(d) == 10:
		d = "1" + d
	}
	n := "+" + d
	if !reE164.MatchString(n) {
		return ""
	}
	return n
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// strippedPhone is the cellphone column without its separators.
const strippedPhone = `REPLACE(REPLACE(REPLACE(REPLACE(REPLACE(REPLACE(cellphone,'+',''),' ',''),'-',''),'(',''),')',''),'.','')`

// phoneMatches matches attendees whose cellphone has the digits of
// phone, with or without the North American country code.
func phoneMatches(phone string) db.Option {
	d := digitsOnly(phone)
	alt := d
	switch {
	case len(d) == 10:
		alt = "1" + d
	case len(d) == 11 && strings.HasPrefix(d, "1"):
		alt = d[1:]
	}
	return db.Where(strippedPhone+" IN (?, ?)", d, alt)
}

// FindByCellphone finds the attendee with phone as cellphone, trying the
// normalized number first and then a digits-only comparison.
func FindByCellphone(s *db.Session, phone string) (*models.Attendee, error) {
	if n := NormPhone(phone); n != "" {
		a, err := db.First[models.Attendee](s, db.Where("cellphone = ?", n))
		if !errors.Is(err, errs.NotFound) {
			return a, err
		}
	}
	if digitsOnly(phone) == "" {
		return nil, errs.NotFound
	}
	return db.First[models.Attendee](s, phoneMatches(phone))
}
