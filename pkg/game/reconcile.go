package game

import "slices"

// Reconcile merges an untrusted partial delta into a character state and
// returns the result. It never fails: malformed or out-of-whitelist fields
// are dropped rather than errored, and invariants are repaired after the
// merge. The inputs are not mutated.
func Reconcile(prior CharacterState, delta *CharacterDelta) CharacterState {
	next := prior.clone()
	if delta == nil {
		next.repairBounds()
		return next
	}

	applyString(&next.Name, delta.Name)
	applyString(&next.Realm, delta.Realm)
	applyString(&next.BodyRealm, delta.BodyRealm)
	applyInt(&next.Cultivation, delta.Cultivation)
	applyInt(&next.MaxCultivation, delta.MaxCultivation)
	applyInt(&next.Health, delta.Health)
	applyInt(&next.MaxHealth, delta.MaxHealth)
	applyInt(&next.Soul, delta.Soul)
	applyInt(&next.MaxSoul, delta.MaxSoul)
	applyInt(&next.SpiritStones, delta.SpiritStones)

	// Attributes merge per key, gated on the closed set. Unknown names
	// are a routine occurrence with a generative source, not an error.
	for name, v := range delta.Attributes {
		if !IsAttribute(name) {
			continue
		}
		if next.Attributes == nil {
			next.Attributes = make(map[string]int)
		}
		next.Attributes[name] = int(v)
	}

	// Item knowledge merges per key; an entry present on both sides is
	// replaced wholesale by the delta's entry.
	for name, detail := range delta.ItemDetails {
		if next.ItemDetails == nil {
			next.ItemDetails = make(map[string]ItemDetail)
		}
		next.ItemDetails[name] = detail
	}

	// Equipment is merged slot by slot.
	if delta.Equipment != nil {
		applyString(&next.Equipment.Weapon, delta.Equipment.Weapon)
		applyString(&next.Equipment.Armor, delta.Equipment.Armor)
		applyString(&next.Equipment.Relic, delta.Equipment.Relic)
	}

	// Lists are full replacements: the generator always emits the complete
	// current list. A present-but-empty list empties the state.
	if delta.Inventory != nil {
		next.Inventory = Names(delta.Inventory)
	}
	if delta.Techniques != nil {
		next.Techniques = dedupe(Names(delta.Techniques))
	}
	if delta.StatusEffects != nil {
		next.StatusEffects = Names(delta.StatusEffects)
	}

	next.repairBounds()
	return next
}

// repairBounds restores the max >= current invariant on every pool and the
// spirit stone floor. The generator routinely raises a current value without
// touching its cap; the cap yields.
func (cs *CharacterState) repairBounds() {
	if cs.Cultivation > cs.MaxCultivation {
		cs.MaxCultivation = cs.Cultivation
	}
	if cs.Health > cs.MaxHealth {
		cs.MaxHealth = cs.Health
	}
	if cs.Soul > cs.MaxSoul {
		cs.MaxSoul = cs.Soul
	}
	if cs.SpiritStones < 0 {
		cs.SpiritStones = 0
	}
}

func (cs CharacterState) clone() CharacterState {
	next := cs
	next.Attributes = make(map[string]int, len(cs.Attributes))
	for k, v := range cs.Attributes {
		next.Attributes[k] = v
	}
	if cs.ItemDetails != nil {
		next.ItemDetails = make(map[string]ItemDetail, len(cs.ItemDetails))
		for k, v := range cs.ItemDetails {
			next.ItemDetails[k] = v
		}
	}
	next.Inventory = slices.Clone(cs.Inventory)
	next.Techniques = slices.Clone(cs.Techniques)
	next.StatusEffects = slices.Clone(cs.StatusEffects)
	return next
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func applyInt(dst *int, src *FlexInt) {
	if src != nil {
		*dst = int(*src)
	}
}

func dedupe(list []string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}
