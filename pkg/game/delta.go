package game

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// FlexInt is an int that tolerates the numeric shapes LLMs actually emit:
// integers, floats (truncated) and quoted digit strings. Anything else is
// a decode error, which drops the strict-parse stage down to field-level
// recovery.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	s = strings.Trim(s, `"`)
	if v, err := strconv.Atoi(s); err == nil {
		*f = FlexInt(v)
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = FlexInt(int(v))
	return nil
}

// FlexName is a list element that the generator sometimes emits as a bare
// string and sometimes as an object like {"name": "铁剑", "count": 1}.
// Objects are coerced to their name field; any other value is coerced to
// its compact JSON form. Decoding never fails.
type FlexName string

func (n *FlexName) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*n = FlexName(s)
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err == nil {
		if raw, ok := obj["name"]; ok {
			if err := json.Unmarshal(raw, &s); err == nil {
				*n = FlexName(s)
				return nil
			}
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err == nil {
		*n = FlexName(buf.String())
	} else {
		*n = FlexName(strings.TrimSpace(string(data)))
	}
	return nil
}

// Names converts a decoded list to plain strings, dropping empties.
func Names(list []FlexName) []string {
	out := make([]string, 0, len(list))
	for _, n := range list {
		if s := strings.TrimSpace(string(n)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// EquipmentDelta updates individual equipment slots. Slots left nil are
// not touched.
type EquipmentDelta struct {
	Weapon *string `json:"weapon,omitempty"`
	Armor  *string `json:"armor,omitempty"`
	Relic  *string `json:"relic,omitempty"`
}

// CharacterDelta is a partial character update proposed by the generator.
// Every field is optional; nil means "unchanged", never "zero". The delta
// is untrusted input and is only applied through Reconcile.
type CharacterDelta struct {
	Name           *string               `json:"name,omitempty"`
	Realm          *string               `json:"realm,omitempty"`
	BodyRealm      *string               `json:"bodyRealm,omitempty"`
	Cultivation    *FlexInt              `json:"cultivation,omitempty"`
	MaxCultivation *FlexInt              `json:"maxCultivation,omitempty"`
	Health         *FlexInt              `json:"health,omitempty"`
	MaxHealth      *FlexInt              `json:"maxHealth,omitempty"`
	Soul           *FlexInt              `json:"soul,omitempty"`
	MaxSoul        *FlexInt              `json:"maxSoul,omitempty"`
	SpiritStones   *FlexInt              `json:"spiritStones,omitempty"`
	Attributes     map[string]FlexInt    `json:"attributes,omitempty"`
	Inventory      []FlexName            `json:"inventory,omitempty"`
	ItemDetails    map[string]ItemDetail `json:"itemDetails,omitempty"`
	Equipment      *EquipmentDelta       `json:"equipment,omitempty"`
	Techniques     []FlexName            `json:"techniques,omitempty"`
	StatusEffects  []FlexName            `json:"statusEffects,omitempty"`
}

// IsEmpty checks if the delta carries no changes at all.
func (d *CharacterDelta) IsEmpty() bool {
	return d == nil || (d.Name == nil &&
		d.Realm == nil &&
		d.BodyRealm == nil &&
		d.Cultivation == nil &&
		d.MaxCultivation == nil &&
		d.Health == nil &&
		d.MaxHealth == nil &&
		d.Soul == nil &&
		d.MaxSoul == nil &&
		d.SpiritStones == nil &&
		len(d.Attributes) == 0 &&
		d.Inventory == nil &&
		len(d.ItemDetails) == 0 &&
		d.Equipment == nil &&
		d.Techniques == nil &&
		d.StatusEffects == nil)
}
