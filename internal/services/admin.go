package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/magfest/uber/internal/config"
	"github.com/magfest/uber/internal/db"
	"github.com/magfest/uber/internal/errs"
	"github.com/magfest/uber/internal/models"
)

const (
	TestAdminEmail    = "magfest@example.com"
	TestAdminPassword = "magfest"
)

// ErrBadLogin is returned for an unknown email or a wrong password.
var ErrBadLogin = errs.Rule("Incorrect email/password combination")

// InsertTestAdminAccount creates a placeholder attendee with every access
// level, logging in as magfest@example.com / magfest. It does nothing and
// returns false once any admin account exists.
func InsertTestAdminAccount(s *db.Session) (bool, error) {
	n, err := db.Count[models.AdminAccount](s)
	if err != nil {
		return false, err
	}
	if n != 0 {
		return false, nil
	}

	a := models.New[models.Attendee]()
	a.Placeholder = true
	a.FirstName = "Test"
	a.LastName = "Developer"
	a.Email = TestAdminEmail
	a.BadgeType = config.AttendeeBadge

	acct := models.New[models.AdminAccount]()
	acct.Attendee = a
	acct.Access = models.MultiChoiceOf(config.AccessOpts.Vals()...)
	if err := acct.SetPassword(TestAdminPassword); err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	s.Add(a)
	s.Add(acct)
	return true, nil
}

// CheckPassword returns the admin account for email when password matches
// its password, or an unexpired reset password mailed to it.
func CheckPassword(s *db.Session, email, password string) (*models.AdminAccount, error) {
	acct, err := GetAccountByEmail(s, email)
	if errors.Is(err, errs.NotFound) {
		return nil, ErrBadLogin
	}
	if err != nil {
		return nil, err
	}
	if acct.CheckPassword(password) {
		return acct, nil
	}
	if err := s.Load(acct, "PasswordReset"); err != nil {
		return nil, err
	}
	if r := acct.PasswordReset; r != nil && !r.IsExpired() && r.CheckPassword(password) {
		return acct, nil
	}
	return nil, ErrBadLogin
}

// IssuePasswordReset replaces any earlier reset for the account of email
// and returns the new one-time password to be mailed out.
func IssuePasswordReset(s *db.Session, email string) (string, error) {
	acct, err := GetAccountByEmail(s, email)
	if err != nil {
		return "", err
	}
	if err := s.Load(acct, "PasswordReset"); err != nil {
		return "", err
	}
	if acct.PasswordReset != nil {
		s.Delete(acct.PasswordReset)
		acct.PasswordReset = nil
		// the old row has to go before the unique account_id is reused
		if err := s.Flush(); err != nil {
			return "", err
		}
	}

	password := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	reset := models.New[models.PasswordReset]()
	reset.AccountID = acct.ID
	if err := reset.SetPassword(password); err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	acct.PasswordReset = reset
	s.Add(reset)
	return password, nil
}

// AccessSet is the set of access levels of account id; empty when the
// account does not exist.
func AccessSet(s *db.Session, id string) map[int]bool {
	set := make(map[int]bool)
	acct, err := db.Get[models.AdminAccount](s, id)
	if err != nil {
		return set
	}
	for _, level := range acct.AccessInts() {
		set[level] = true
	}
	return set
}
