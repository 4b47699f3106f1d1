package game

// BuyProperty purchases the unowned toll square the player decided on.
func (g *Game) BuyProperty(playerID string, propertyID int) error {
	p, err := g.requireTurn(playerID)
	if err != nil {
		return err
	}
	sq, ok := SquareAt(propertyID)
	if !ok || sq.Kind != SquareToll {
		return ErrPropertyNotFound
	}
	prop := g.properties[propertyID]
	if prop.Owner != "" {
		return ErrAlreadyOwned
	}
	if g.Phase != PhaseAwaitingPurchase || p.Position != propertyID {
		return ErrWrongPhase
	}
	if p.Money < sq.Price {
		return ErrInsufficientFunds
	}
	p.Money -= sq.Price
	prop.Owner = p.ID
	p.Properties = append(p.Properties, propertyID)
	g.Phase = PhaseAwaitingEndTurn
	g.touch()
	return nil
}

// hasMonopoly reports whether the owner holds every square of the group.
// Mortgaged siblings do not block the bonus.
func (g *Game) hasMonopoly(ownerID, group string) bool {
	ids := GroupSquares(group)
	if len(ids) == 0 {
		return false
	}
	for _, id := range ids {
		if g.properties[id].Owner != ownerID {
			return false
		}
	}
	return true
}

// computeRent evaluates the rent due on a toll square at landing time.
func (g *Game) computeRent(propertyID int) int {
	sq := Board[propertyID]
	prop := g.properties[propertyID]
	if prop.Owner == "" || prop.Mortgaged {
		return 0
	}
	if prop.Hotel {
		return sq.Rents[5]
	}
	if prop.Houses > 0 {
		return sq.Rents[prop.Houses]
	}
	rent := sq.Rents[0]
	if g.hasMonopoly(prop.Owner, sq.Group) {
		rent *= 2
	}
	return rent
}

// BuildHouse adds one house to a property, or upgrades to a hotel when four
// houses stand. The strict even-building rule applies: a property may gain a
// house only while its count is the minimum across its color group.
func (g *Game) BuildHouse(playerID string, propertyID int) error {
	p, err := g.requireTurn(playerID)
	if err != nil {
		return err
	}
	sq, ok := SquareAt(propertyID)
	if !ok {
		return ErrPropertyNotFound
	}
	if sq.Kind != SquareToll {
		return ErrWrongPropertyType
	}
	prop := g.properties[propertyID]
	if prop.Owner != p.ID {
		return ErrNotOwner
	}
	if !g.hasMonopoly(p.ID, sq.Group) {
		return ErrNoMonopoly
	}
	if prop.Hotel {
		return ErrHotelAlreadyPresent
	}
	if prop.Houses > g.minHousesInGroup(sq.Group) {
		return ErrUnevenBuilding
	}
	if p.Money < sq.HouseCost {
		return ErrInsufficientFunds
	}

	if prop.Houses == 4 {
		// Upgrade: the hotel supersedes the four houses.
		if g.hotelsAvail == 0 {
			return ErrNoHotelsInBank
		}
		g.hotelsAvail--
		g.housesAvail += 4
		prop.Houses = 0
		prop.Hotel = true
	} else {
		if g.housesAvail == 0 {
			return ErrNoHousesInBank
		}
		g.housesAvail--
		prop.Houses++
	}
	p.Money -= sq.HouseCost
	g.touch()
	return nil
}

// minHousesInGroup returns the lowest effective house count in the group.
// A hotel counts as five.
func (g *Game) minHousesInGroup(group string) int {
	min := -1
	for _, id := range GroupSquares(group) {
		prop := g.properties[id]
		n := prop.Houses
		if prop.Hotel {
			n = 5
		}
		if min == -1 || n < min {
			min = n
		}
	}
	if min == -1 {
		return 0
	}
	return min
}

// BankSupply exposes the remaining house and hotel stock.
func (g *Game) BankSupply() (houses, hotels int) {
	return g.housesAvail, g.hotelsAvail
}

// PropertyState returns the runtime state of a toll square.
func (g *Game) PropertyState(id int) (Property, bool) {
	prop, ok := g.properties[id]
	if !ok {
		return Property{}, false
	}
	return *prop, true
}
