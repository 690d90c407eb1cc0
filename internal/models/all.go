package models

// All returns one zero value of every table, parents before children, in
// the order they are migrated and inserted.
func All() []Model {
	return []Model{
		&Group{},
		&Attendee{},
		&AdminAccount{},
		&PasswordReset{},
		&Event{},
		&AssignedPanelist{},
		&Job{},
		&Shift{},
		&DeptChecklistItem{},
		&HotelRequests{},
		&FoodRestrictions{},
		&Room{},
		&RoomAssignment{},
		&NoShirt{},
		&MerchPickup{},
		&MPointsForCash{},
		&OldMPointExchange{},
		&Sale{},
		&ArbitraryCharge{},
		&Game{},
		&Checkout{},
		&PrevSeasonSupporter{},
		&SeasonPassTicket{},
		&ApprovedEmail{},
		&Email{},
		&Tracking{},
	}
}

var tableRank = func() map[string]int {
	ranks := make(map[string]int)
	for i, m := range All() {
		ranks[m.TableName()] = i
	}
	return ranks
}()

// Rank orders tables so parents come first; unknown tables sort last.
func Rank(m Model) int {
	if r, ok := tableRank[m.TableName()]; ok {
		return r
	}
	return len(tableRank)
}

// ByTable returns a zero value of the named table.
func ByTable(table string) (Model, bool) {
	for _, m := range All() {
		if m.TableName() == table {
			return m, true
		}
	}
	return nil, false
}
