package game

// Character is one of the five playable nationalities.
type Character string

const (
	CharAmerican Character = "american"
	CharFrench   Character = "french"
	CharJapanese Character = "japanese"
	CharIndian   Character = "indian"
	CharThai     Character = "thai"
)

// CharacterOrder is the deterministic scan order used when a requested
// character is already taken in a room.
var CharacterOrder = []Character{CharAmerican, CharFrench, CharJapanese, CharIndian, CharThai}

// ValidCharacter reports whether c is a playable character.
func ValidCharacter(c Character) bool {
	for _, k := range CharacterOrder {
		if k == c {
			return true
		}
	}
	return false
}

// Tag is an immutable catalog entry. Players reference tags by id only; the
// catalog never mutates at runtime.
type Tag struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// countryTags holds eight tags per nationality. Labels are opaque content.
var countryTags = map[Character][]Tag{
	CharAmerican: {
		{"us1", "Loud talker"}, {"us2", "Fast-food regular"}, {"us3", "Never walks anywhere"},
		{"us4", "Tips everyone"}, {"us5", "Flag on everything"}, {"us6", "Super-size orders"},
		{"us7", "Small-talks strangers"}, {"us8", "Road-trip obsessed"},
	},
	CharFrench: {
		{"fr1", "Baguette under arm"}, {"fr2", "Two-hour lunch"}, {"fr3", "Corrects your accent"},
		{"fr4", "Strike enthusiast"}, {"fr5", "Cheese connoisseur"}, {"fr6", "Scarf in summer"},
		{"fr7", "Cafe philosopher"}, {"fr8", "Fashion critic"},
	},
	CharJapanese: {
		{"jp1", "Bows at everything"}, {"jp2", "Photographs every meal"}, {"jp3", "Never jaywalks"},
		{"jp4", "Vending-machine gourmet"}, {"jp5", "Workaholic"}, {"jp6", "Queue perfectionist"},
		{"jp7", "Karaoke veteran"}, {"jp8", "Polite refusals only"},
	},
	CharIndian: {
		{"in1", "Head-wobble yes"}, {"in2", "Spice-proof palate"}, {"in3", "Cricket fanatic"},
		{"in4", "Family of fifty"}, {"in5", "Haggles everywhere"}, {"in6", "Engineer by default"},
		{"in7", "Bollywood soundtrack"}, {"in8", "Chai every hour"},
	},
	CharThai: {
		{"th1", "Smiles at strangers"}, {"th2", "Street-food expert"}, {"th3", "Never says no"},
		{"th4", "Motorbike taxi pro"}, {"th5", "Spirit-house respectful"}, {"th6", "Songkran warrior"},
		{"th7", "Mango sticky rice"}, {"th8", "Flip-flops everywhere"},
	},
}

// generalTags are nationality-independent.
var generalTags = []Tag{
	{"g1", "Always late"}, {"g2", "Phone addict"}, {"g3", "Picky eater"},
	{"g4", "Backseat driver"}, {"g5", "Loud chewer"}, {"g6", "Queue jumper"},
	{"g7", "Over-packer"}, {"g8", "Souvenir hoarder"}, {"g9", "Selfie machine"},
	{"g10", "Bargain hunter"}, {"g11", "Weather complainer"}, {"g12", "Map refuser"},
	{"g13", "Tour-group straggler"}, {"g14", "Hotel towel collector"}, {"g15", "Free-wifi seeker"},
	{"g16", "Jet-lag zombie"}, {"g17", "Currency confuser"}, {"g18", "Translation-app reader"},
	{"g19", "Museum sprinter"}, {"g20", "Buffet strategist"}, {"g21", "Window-seat fighter"},
	{"g22", "Duty-free splurger"}, {"g23", "Early check-in demander"}, {"g24", "Review writer"},
}

// answerKeys holds the three correct country tags for each nationality's
// lobby quiz. submitTagSelection is verified against this key; auto-assign
// applies it directly.
var answerKeys = map[Character][]string{
	CharAmerican: {"us1", "us2", "us3"},
	CharFrench:   {"fr1", "fr2", "fr3"},
	CharJapanese: {"jp1", "jp2", "jp3"},
	CharIndian:   {"in1", "in2", "in3"},
	CharThai:     {"th1", "th2", "th3"},
}

// CountryTags returns the full country pool for a nationality.
func CountryTags(c Character) []Tag {
	return countryTags[c]
}

// GeneralTags returns the general tag pool.
func GeneralTags() []Tag {
	return generalTags
}

// AnswerKey returns the correct lobby-quiz selection for a nationality.
func AnswerKey(c Character) []string {
	key := answerKeys[c]
	out := make([]string, len(key))
	copy(out, key)
	return out
}

// IsGeneralTag reports whether id belongs to the general namespace.
func IsGeneralTag(id string) bool {
	return len(id) > 1 && id[0] == 'g'
}

// TagLabel resolves a tag id to its catalog label.
func TagLabel(id string) string {
	for _, t := range generalTags {
		if t.ID == id {
			return t.Label
		}
	}
	for _, pool := range countryTags {
		for _, t := range pool {
			if t.ID == id {
				return t.Label
			}
		}
	}
	return ""
}

// KnownTag reports whether id exists in either catalog.
func KnownTag(id string) bool {
	return TagLabel(id) != ""
}
