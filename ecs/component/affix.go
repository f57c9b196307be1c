package component

// AffixKind is a random modifier rolled onto an agent at spawn.
type AffixKind string

const (
	AffixNone        AffixKind = ""
	AffixBerserker   AffixKind = "berserker"
	AffixRegenerator AffixKind = "regenerator"
	AffixSplitter    AffixKind = "splitter"
	AffixVampiric    AffixKind = "vampiric"
)

var AllAffixes = []AffixKind{AffixBerserker, AffixRegenerator, AffixSplitter, AffixVampiric}

type Affix struct {
	Kind AffixKind
	// Triggered latches one-shot affixes (berserker rage).
	Triggered bool
}

var AffixComponent = NewComponent[Affix]()

// Explosive agents damage everything nearby when they die.
type Explosive struct {
	Radius           float64
	Damage           float64
	AgentDamageScale float64
}

var ExplosiveComponent = NewComponent[Explosive]()
