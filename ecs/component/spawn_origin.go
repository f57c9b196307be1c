package component

// SpawnOrigin attributes an agent to the night and spawn point that
// produced it. Point is empty for unattributed spawns (minions).
type SpawnOrigin struct {
	Night      int
	Point      string
	Generation int
}

var SpawnOriginComponent = NewComponent[SpawnOrigin]()
