package engine

// TerrainDef describes one named terrain type: display data plus a
// per-movement-group cost row in the movement cost table (§6 "Movement cost
// table").
type TerrainDef struct {
	NID       NID
	Name      string
	SpriteRef string
	Opaque    bool
}

// Tile is a single grid cell: terrain plus whatever the Board's unit_grid
// says occupies it. Immutable after level load except for terrain-change
// event commands (set_tile).
type Tile struct {
	TerrainID NID
}

// RegionKind is the closed set of region type tags a Level can place.
type RegionKind string

const (
	RegionVillage   RegionKind = "village"
	RegionSeize     RegionKind = "seize"
	RegionShop      RegionKind = "shop"
	RegionEvent     RegionKind = "event"
	RegionFormation RegionKind = "formation"
	RegionFog       RegionKind = "fog"
)

// Region is a rectangular zone carrying a type tag, grounded on spec.md §3
// Level.regions and exposed on the Board per SPEC_FULL §4.1's expansion so
// the event interpreter and game states can resolve seize/shop/village
// interactions without reaching back into the Level.
type Region struct {
	NID       RegionId
	Kind      RegionKind
	X, Y, W, H int
	SubNID    NID
	Condition string
}

func (r Region) Contains(c Coord) bool {
	return c.X >= r.X && c.X < r.X+r.W && c.Y >= r.Y && c.Y < r.Y+r.H
}

// Board is the grid of tiles plus the unit occupancy reverse-index. Created
// at level load, destroyed at level teardown. Invariant: every unit with a
// position appears in exactly one unit_grid cell, and that cell's coordinate
// equals the unit's Position field (§3 Board invariant, tested as property 1
// in §8).
type Board struct {
	Width, Height int
	tiles         [][]Tile
	unitGrid      [][]UnitId // unitGrid[y][x] -> unit nid, "" if empty

	fogMasks map[NID]map[Coord]bool // per-team visibility; recomputed externally
	regions  []Region
}

// NewBoard allocates a width x height board of the given terrain, grounded
// on lib/world.go's NewWorld constructor shape (build indexes, then return).
func NewBoard(width, height int, defaultTerrain NID) *Board {
	b := &Board{
		Width:    width,
		Height:   height,
		fogMasks: map[NID]map[Coord]bool{},
	}
	b.tiles = make([][]Tile, height)
	b.unitGrid = make([][]UnitId, height)
	for y := 0; y < height; y++ {
		b.tiles[y] = make([]Tile, width)
		b.unitGrid[y] = make([]UnitId, width)
		for x := 0; x < width; x++ {
			b.tiles[y][x] = Tile{TerrainID: defaultTerrain}
		}
	}
	return b
}

func (b *Board) InBounds(c Coord) bool {
	return c.X >= 0 && c.X < b.Width && c.Y >= 0 && c.Y < b.Height
}

// GetTerrain returns the terrain id at (x,y), or "" if out of bounds.
func (b *Board) GetTerrain(c Coord) NID {
	if !b.InBounds(c) {
		return ""
	}
	return b.tiles[c.Y][c.X].TerrainID
}

// SetTerrain changes the terrain at a coordinate (used by the event
// interpreter's set_tile command).
func (b *Board) SetTerrain(c Coord, terrainID NID) error {
	if !b.InBounds(c) {
		return ErrInvalidPosition(c.X, c.Y)
	}
	b.tiles[c.Y][c.X].TerrainID = terrainID
	return nil
}

// GetUnit returns the unit id occupying (x,y), or "" if empty/out of bounds.
func (b *Board) GetUnit(c Coord) UnitId {
	if !b.InBounds(c) {
		return ""
	}
	return b.unitGrid[c.Y][c.X]
}

func (b *Board) IsOccupied(c Coord) bool {
	return b.GetUnit(c) != ""
}

// SetUnit places a unit id at a coordinate. Fails with TileOccupied unless
// the occupant is already the same unit.
func (b *Board) SetUnit(c Coord, id UnitId) error {
	if !b.InBounds(c) {
		return ErrInvalidPosition(c.X, c.Y)
	}
	occ := b.unitGrid[c.Y][c.X]
	if occ != "" && occ != id {
		return ErrTileOccupied(c.X, c.Y)
	}
	b.unitGrid[c.Y][c.X] = id
	return nil
}

// RemoveUnitAt clears whatever unit id sits at a coordinate.
func (b *Board) RemoveUnitAt(c Coord) {
	if b.InBounds(c) {
		b.unitGrid[c.Y][c.X] = ""
	}
}

// MoveUnit clears the `from` cell and occupies `to` with id, enforcing the
// position invariant. Used both by live moves and by the Action Log's
// inverse-of-Move undo.
func (b *Board) MoveUnit(id UnitId, from, to Coord) error {
	if from != to {
		if b.InBounds(from) && b.unitGrid[from.Y][from.X] == id {
			b.unitGrid[from.Y][from.X] = ""
		}
	}
	return b.SetUnit(to, id)
}

// AddRegion registers a level region on the board.
func (b *Board) AddRegion(r Region) { b.regions = append(b.regions, r) }

// RemoveRegion drops a region by nid (event interpreter's remove_region).
func (b *Board) RemoveRegion(nid RegionId) {
	out := b.regions[:0]
	for _, r := range b.regions {
		if r.NID != nid {
			out = append(out, r)
		}
	}
	b.regions = out
}

// RegionAt returns every region covering a coordinate.
func (b *Board) RegionAt(c Coord) []Region {
	var out []Region
	for _, r := range b.regions {
		if r.Contains(c) {
			out = append(out, r)
		}
	}
	return out
}

// RegionsOfType returns every region of a given kind.
func (b *Board) RegionsOfType(kind RegionKind) []Region {
	var out []Region
	for _, r := range b.regions {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

// SetFogVisible marks a coordinate visible/hidden for a team's fog mask.
func (b *Board) SetFogVisible(team NID, c Coord, visible bool) {
	mask, ok := b.fogMasks[team]
	if !ok {
		mask = map[Coord]bool{}
		b.fogMasks[team] = mask
	}
	mask[c] = visible
}

// FogVisible reports whether a team can currently see a tile. Teams with no
// fog mask registered (fog disabled, or free-for-all visibility) see
// everything.
func (b *Board) FogVisible(team NID, c Coord) bool {
	mask, ok := b.fogMasks[team]
	if !ok {
		return true
	}
	return mask[c]
}

// ClearFog drops a team's fog mask entirely (full visibility).
func (b *Board) ClearFog(team NID) { delete(b.fogMasks, team) }
