// Package world provides the battle grid, terrain, and spatial queries.
// Positions are integer (x, y) pairs with y growing downward.
package world

import "fmt"

// Pos is a grid position.
type Pos struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Pos) String() string {
	return fmt.Sprintf("[%d,%d]", p.X, p.Y)
}

// Add returns p offset by d.
func (p Pos) Add(d Pos) Pos {
	return Pos{X: p.X + d.X, Y: p.Y + d.Y}
}

// PlayerID identifies a player for the lifetime of a session.
type PlayerID int

// Unowned marks a cell that belongs to nobody.
const Unowned PlayerID = -1

// Terrain types. The numeric values match the codes used in level files.
type Terrain uint8

const (
	TerrainPlain            Terrain = iota // Base land, slow growth
	TerrainPopulationCenter                // Fast growth
	TerrainPoliticalCenter                 // No growth, speeds up base land for its owner
	TerrainHeadquarters                    // Capture defeats the owner
	TerrainMountain                        // Impassable
	TerrainLake                            // Impassable
)

// TerrainCount is the number of terrain kinds.
const TerrainCount = 6

var terrainNames = [TerrainCount]string{
	"plain", "population_center", "political_center", "headquarters", "mountain", "lake",
}

// TerrainName returns the lower-case name of a terrain type.
func TerrainName(t Terrain) string {
	if int(t) < len(terrainNames) {
		return terrainNames[t]
	}
	return "unknown"
}

func (t Terrain) String() string { return TerrainName(t) }

// Valid reports whether t is a known terrain code.
func (t Terrain) Valid() bool { return int(t) < TerrainCount }

// Passable reports whether troops may enter or hold cells of this terrain.
func (t Terrain) Passable() bool {
	return t != TerrainMountain && t != TerrainLake
}

// Strategic reports whether the terrain is a high-value target.
func (t Terrain) Strategic() bool {
	return t == TerrainPopulationCenter || t == TerrainPoliticalCenter || t == TerrainHeadquarters
}

// Directions lists the four neighbor offsets in the fixed order up, right, down, left.
var Directions = [4]Pos{
	{X: 0, Y: -1},
	{X: 1, Y: 0},
	{X: 0, Y: 1},
	{X: -1, Y: 0},
}

// Manhattan returns the 4-directional grid distance between two positions.
func Manhattan(a, b Pos) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

// IsAdjacent reports whether a and b share an edge.
func IsAdjacent(a, b Pos) bool {
	return Manhattan(a, b) == 1
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
