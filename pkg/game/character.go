package game

import "slices"

// EquipmentNone is the sentinel value for an empty equipment slot.
const EquipmentNone = "无"

// AttributeNames is the closed set of character attributes. Delta keys
// outside this set are discarded at the reconciliation boundary; the
// upstream generator is not allowed to invent stats.
var AttributeNames = []string{
	"根骨", // physique
	"悟性", // insight
	"身法", // agility
	"机缘", // fortune
	"魅力", // charisma
	"道心", // resolve
}

// IsAttribute reports whether name belongs to the closed attribute set.
func IsAttribute(name string) bool {
	return slices.Contains(AttributeNames, name)
}

// EquipmentState holds the three fixed equipment slots. Slots are merged
// individually; an update naming only one slot leaves the others alone.
type EquipmentState struct {
	Weapon string `json:"weapon"`
	Armor  string `json:"armor"`
	Relic  string `json:"relic"`
}

// ItemDetail is what the character knows about an item after appraising it.
// Absence of an entry in CharacterState.ItemDetails means "unidentified".
type ItemDetail struct {
	Rank         string   `json:"rank,omitempty"`
	Description  string   `json:"description,omitempty"`
	Effects      []string `json:"effects,omitempty"`
	Requirements []string `json:"requirements,omitempty"`
}

// CharacterState is the canonical character record for a session. It is
// owned by the engine and mutated only through Reconcile. JSON keys are
// the wire shape the generator reads and writes; they are frozen.
type CharacterState struct {
	Name           string                `json:"name"`
	Realm          string                `json:"realm"`     // primary cultivation tier
	BodyRealm      string                `json:"bodyRealm"` // body refinement tier
	Cultivation    int                   `json:"cultivation"`
	MaxCultivation int                   `json:"maxCultivation"`
	Health         int                   `json:"health"`
	MaxHealth      int                   `json:"maxHealth"`
	Soul           int                   `json:"soul"`
	MaxSoul        int                   `json:"maxSoul"`
	SpiritStones   int                   `json:"spiritStones"`
	Attributes     map[string]int        `json:"attributes"`
	Inventory      []string              `json:"inventory"`
	ItemDetails    map[string]ItemDetail `json:"itemDetails,omitempty"`
	Equipment      EquipmentState        `json:"equipment"`
	Techniques     []string              `json:"techniques"`
	StatusEffects  []string              `json:"statusEffects"`
}

// NewCharacterState returns the fixed starting character. Origin bonuses
// are narrated by the generator and arrive as an ordinary first-turn delta,
// so every session starts from the same record.
func NewCharacterState() CharacterState {
	attrs := make(map[string]int, len(AttributeNames))
	for _, name := range AttributeNames {
		attrs[name] = 10
	}
	return CharacterState{
		Name:           "修仙者",
		Realm:          "凡人",
		BodyRealm:      "凡躯",
		Cultivation:    0,
		MaxCultivation: 100,
		Health:         100,
		MaxHealth:      100,
		Soul:           50,
		MaxSoul:        50,
		SpiritStones:   0,
		Attributes:     attrs,
		Inventory:      []string{},
		Equipment: EquipmentState{
			Weapon: EquipmentNone,
			Armor:  "布衣",
			Relic:  EquipmentNone,
		},
		Techniques:    []string{},
		StatusEffects: []string{},
	}
}

// HasItem reports whether the named item is in the inventory.
func (cs *CharacterState) HasItem(name string) bool {
	return slices.Contains(cs.Inventory, name)
}
