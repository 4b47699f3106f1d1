package game

// SquareKind distinguishes how a landing is resolved.
type SquareKind string

const (
	SquareStart    SquareKind = "start"
	SquareJail     SquareKind = "jail"
	SquareJump     SquareKind = "jump"
	SquareFestival SquareKind = "festival"
	SquareQuestion SquareKind = "question"
	SquareToll     SquareKind = "toll"
)

// Square is one entry of the static board configuration. The engine treats
// the board as read-only; mutable ownership state lives in Property.
type Square struct {
	ID             int        `json:"id"`
	Name           string     `json:"name"`
	Kind           SquareKind `json:"kind"`
	Group          string     `json:"group,omitempty"`
	OwnerCharacter Character  `json:"ownerCharacter,omitempty"`
	Price          int        `json:"price,omitempty"`
	Toll           int        `json:"toll,omitempty"`
	Rents          [6]int     `json:"rents,omitempty"` // base, 1-4 houses, hotel
	HouseCost      int        `json:"houseCost,omitempty"`
}

const (
	BoardSize      = 24
	StartSquare    = 0
	JailSquare     = 6
	JumpSquare     = 12
	JumpTarget     = 18
	PassStartBonus = 200
	StartingMoney  = 1500

	// Global bank supply per room.
	BankHouses = 32
	BankHotels = 12

	MaxPlayers = 8
)

func toll(id int, name, group string, owner Character, price, base, houseCost int) Square {
	return Square{
		ID: id, Name: name, Kind: SquareToll,
		Group: group, OwnerCharacter: owner,
		Price: price, Toll: base,
		Rents:     [6]int{base, base * 3, base * 8, base * 18, base * 30, base * 45},
		HouseCost: houseCost,
	}
}

func question(id int, name string) Square {
	return Square{ID: id, Name: name, Kind: SquareQuestion}
}

// Board is the single configured board variant. Square names and flavor are
// opaque content; only id, kind, group, owner character and the money columns
// matter to the engine.
var Board = []Square{
	{ID: 0, Name: "Departure", Kind: SquareStart},
	toll(1, "Route 66 Diner", "american", CharAmerican, 100, 6, 50),
	question(2, "Mystery I"),
	toll(3, "Hollywood Walk", "american", CharAmerican, 120, 8, 50),
	toll(4, "Liberty Harbor", "american", CharAmerican, 140, 10, 50),
	toll(5, "Cafe de Flore", "french", CharFrench, 160, 12, 100),
	{ID: 6, Name: "Customs Holding", Kind: SquareJail},
	question(7, "Mystery II"),
	toll(8, "Champs-Elysees", "french", CharFrench, 180, 14, 100),
	toll(9, "Mont Saint-Michel", "french", CharFrench, 200, 16, 100),
	toll(10, "Shibuya Crossing", "japanese", CharJapanese, 220, 18, 150),
	question(11, "Mystery III"),
	{ID: 12, Name: "Red-Eye Flight", Kind: SquareJump},
	toll(13, "Fushimi Inari", "japanese", CharJapanese, 240, 20, 150),
	toll(14, "Dotonbori", "japanese", CharJapanese, 260, 22, 150),
	toll(15, "Gateway of India", "indian", CharIndian, 280, 24, 200),
	question(16, "Mystery IV"),
	toll(17, "Jaipur Bazaar", "indian", CharIndian, 300, 26, 200),
	{ID: 18, Name: "Lantern Festival", Kind: SquareFestival},
	toll(19, "Taj Mahal Road", "indian", CharIndian, 320, 28, 200),
	toll(20, "Chatuchak Market", "thai", CharThai, 350, 35, 200),
	question(21, "Mystery V"),
	toll(22, "Khao San Road", "thai", CharThai, 400, 50, 200),
	toll(23, "Grand Palace", "thai", CharThai, 500, 70, 200),
}

var groupSquares = map[string][]int{}

func init() {
	if len(Board) != BoardSize {
		panic("board size mismatch")
	}
	for _, sq := range Board {
		if sq.Kind == SquareToll {
			groupSquares[sq.Group] = append(groupSquares[sq.Group], sq.ID)
		}
	}
}

// SquareAt returns the static square at position id.
func SquareAt(id int) (Square, bool) {
	if id < 0 || id >= len(Board) {
		return Square{}, false
	}
	return Board[id], true
}

// GroupSquares returns the board positions belonging to a color group.
func GroupSquares(group string) []int {
	return groupSquares[group]
}
