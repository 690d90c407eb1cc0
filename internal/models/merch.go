package models

import (
	"time"

	"github.com/magfest/uber/internal/config"
)

// NoShirt marks an attendee who was owed a shirt we did not have.
type NoShirt struct {
	MagModel
	AttendeeID string `gorm:"type:varchar(36);uniqueIndex" uber:"fk=attendee" validate:"required"`
}

func (NoShirt) TableName() string { return "no_shirt" }

// MerchPickup records one attendee collecting another's merch.
type MerchPickup struct {
	MagModel
	PickedUpByID  string `gorm:"type:varchar(36);index" uber:"fk=attendee" validate:"required"`
	PickedUpForID string `gorm:"type:varchar(36);uniqueIndex" uber:"fk=attendee" validate:"required"`
}

func (MerchPickup) TableName() string { return "merch_pickup" }

type MPointsForCash struct {
	MagModel
	AttendeeID string `gorm:"type:varchar(36);index" uber:"fk=attendee" validate:"required"`
	Amount     int
	When       time.Time
}

func (MPointsForCash) TableName() string { return "m_points_for_cash" }

func (m *MPointsForCash) SetDefaults() { m.When = config.Now().UTC() }

type OldMPointExchange struct {
	MagModel
	AttendeeID string `gorm:"type:varchar(36);index" uber:"fk=attendee" validate:"required"`
	Amount     int
	When       time.Time
}

func (OldMPointExchange) TableName() string { return "old_m_point_exchange" }

func (m *OldMPointExchange) SetDefaults() { m.When = config.Now().UTC() }

// Sale is one transaction at the merch booth.
type Sale struct {
	MagModel
	AttendeeID    *string `gorm:"type:varchar(36);index" uber:"fk=attendee"`
	What          string
	Cash          int
	Mpoints       int
	When          time.Time
	RegStation    *int
	PaymentMethod int `uber:"choice=sale"`
}

func (Sale) TableName() string { return "sale" }

func (s *Sale) SetDefaults() {
	s.When = config.Now().UTC()
	s.PaymentMethod = config.SaleMerch
}

// ArbitraryCharge is money taken for something that is not a badge.
type ArbitraryCharge struct {
	MagModel
	Amount     int
	What       string
	When       time.Time
	RegStation *int
}

func (ArbitraryCharge) TableName() string { return "arbitrary_charge" }

func (c *ArbitraryCharge) SetDefaults() { c.When = config.Now().UTC() }

func (c *ArbitraryCharge) Describe() string { return "<ArbitraryCharge " + c.What + ">" }

// Game is a tabletop game lent out by the games library.
type Game struct {
	MagModel
	Code       string
	Name       string
	AttendeeID string `gorm:"type:varchar(36);index" uber:"fk=attendee" validate:"required"`
	Returned   bool

	Checkouts []*Checkout `gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE" validate:"-"`
}

func (Game) TableName() string { return "game" }

func (g *Game) Describe() string { return "<Game " + g.Name + ">" }

// CheckedOut is the open checkout of the game, if any.
func (g *Game) CheckedOut() *Checkout {
	for _, c := range g.Checkouts {
		if c.Returned == nil {
			return c
		}
	}
	return nil
}

type Checkout struct {
	MagModel
	GameID     string `gorm:"type:varchar(36);index" uber:"fk=game" validate:"required"`
	AttendeeID string `gorm:"type:varchar(36);index" uber:"fk=attendee" validate:"required"`
	CheckedOut time.Time
	Returned   *time.Time
}

func (Checkout) TableName() string { return "checkout" }

func (c *Checkout) SetDefaults() { c.CheckedOut = config.Now().UTC() }
