package component

// ArmorTier is an equipment level; TierNone absorbs nothing.
type ArmorTier int

const (
	TierNone ArmorTier = iota
	Tier1
	Tier2
	Tier3
)

// ArmorSlotKind names a player armor slot.
type ArmorSlotKind string

const (
	SlotVest   ArmorSlotKind = "vest"
	SlotHelmet ArmorSlotKind = "helmet"
)

// ArmorStats is one row of a tier table.
type ArmorStats struct {
	MaxDurability float64
	Reduction     float64
}

var VestTable = [...]ArmorStats{
	TierNone: {0, 0},
	Tier1:    {80, 0.30},
	Tier2:    {150, 0.40},
	Tier3:    {230, 0.55},
}

var HelmetTable = [...]ArmorStats{
	TierNone: {0, 0},
	Tier1:    {50, 0.25},
	Tier2:    {100, 0.35},
	Tier3:    {150, 0.45},
}

// TableFor returns the tier table for a slot.
func TableFor(slot ArmorSlotKind) [4]ArmorStats {
	if slot == SlotHelmet {
		return HelmetTable
	}
	return VestTable
}

func (t ArmorTier) Valid() bool {
	return t >= TierNone && t <= Tier3
}

// ArmorSlot is a tier plus remaining durability.
type ArmorSlot struct {
	Tier       ArmorTier
	Durability float64
}

// Stats returns the table row for the slot's tier.
func (s ArmorSlot) Stats(slot ArmorSlotKind) ArmorStats {
	if !s.Tier.Valid() {
		return ArmorStats{}
	}
	return TableFor(slot)[s.Tier]
}

// Armor is the player's vest and helmet. Only the damage pipeline drains
// it; Equip is the only other mutation.
type Armor struct {
	Vest   ArmorSlot
	Helmet ArmorSlot
}

// Slot returns a pointer to the named slot.
func (a *Armor) Slot(kind ArmorSlotKind) *ArmorSlot {
	if kind == SlotHelmet {
		return &a.Helmet
	}
	return &a.Vest
}

// Equip puts tier into slot at full durability. A lower or equal tier is
// refused unless the current piece is broken or missing.
func (a *Armor) Equip(kind ArmorSlotKind, tier ArmorTier) bool {
	if a == nil || !tier.Valid() || tier == TierNone {
		return false
	}
	s := a.Slot(kind)
	if s.Tier != TierNone && s.Durability > 0 && tier <= s.Tier {
		return false
	}
	s.Tier = tier
	s.Durability = TableFor(kind)[tier].MaxDurability
	return true
}

var ArmorComponent = NewComponent[Armor]()
