package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/magfest/uber/internal/config"
)

// AdminAccount gives an attendee access to the admin pages.
type AdminAccount struct {
	MagModel
	AttendeeID string      `gorm:"type:varchar(36);uniqueIndex" uber:"fk=attendee" validate:"required"`
	Hashed     string      `json:"-"`
	Access     MultiChoice `uber:"choice=access"`

	Attendee      *Attendee      `gorm:"foreignKey:AttendeeID;constraint:OnDelete:CASCADE" validate:"-"`
	PasswordReset *PasswordReset `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE" validate:"-"`
}

func (AdminAccount) TableName() string { return "admin_account" }

func (a *AdminAccount) Describe() string {
	if a.Attendee == nil {
		return "<AdminAccount " + a.ID + ">"
	}
	return "<" + a.Attendee.FullName() + ">"
}

func (a *AdminAccount) AccessInts() []int { return a.Access.Ints(config.AccessOpts) }

func (a *AdminAccount) HasAccess(level int) bool { return a.Access.Has(level) }

// SetPassword stores the bcrypt hash of password.
func (a *AdminAccount) SetPassword(password string) error {
	hashed, err := hashPassword(password)
	if err != nil {
		return err
	}
	a.Hashed = hashed
	return nil
}

// CheckPassword reports whether password matches the stored hash.
func (a *AdminAccount) CheckPassword(password string) bool {
	return a.Hashed != "" && bcrypt.CompareHashAndPassword([]byte(a.Hashed), []byte(password)) == nil
}

// PasswordReset is a one-time password mailed to an admin; it is good for
// a week.
type PasswordReset struct {
	MagModel
	AccountID string    `gorm:"type:varchar(36);uniqueIndex" uber:"fk=admin_account" validate:"required"`
	Generated time.Time `gorm:"autoCreateTime"`
	Hashed    string    `json:"-"`
}

func (PasswordReset) TableName() string { return "password_reset" }

func (p *PasswordReset) IsExpired() bool {
	return p.Generated.Before(config.Now().Add(-7 * 24 * time.Hour))
}

func (p *PasswordReset) SetPassword(password string) error {
	hashed, err := hashPassword(password)
	if err != nil {
		return err
	}
	p.Hashed = hashed
	return nil
}

func (p *PasswordReset) CheckPassword(password string) bool {
	return p.Hashed != "" && bcrypt.CompareHashAndPassword([]byte(p.Hashed), []byte(password)) == nil
}

func hashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
