package engine

// Stats is the canonical stat block carried by units, classes, and growths.
type Stats struct {
	HPMax int
	Str   int
	Mag   int
	Skl   int
	Spd   int
	Lck   int
	Def   int
	Res   int
	Con   int
	Mov   int
}

// Add returns the element-wise sum of two stat blocks (used for level-up
// gains and growth application).
func (s Stats) Add(o Stats) Stats {
	return Stats{
		HPMax: s.HPMax + o.HPMax, Str: s.Str + o.Str, Mag: s.Mag + o.Mag,
		Skl: s.Skl + o.Skl, Spd: s.Spd + o.Spd, Lck: s.Lck + o.Lck,
		Def: s.Def + o.Def, Res: s.Res + o.Res, Con: s.Con + o.Con, Mov: s.Mov + o.Mov,
	}
}

// UnitFlags are the per-turn action flags reset by the Turn/Phase Controller.
type UnitFlags struct {
	Finished    bool
	HasMoved    bool
	HasAttacked bool
	HasTraded   bool
	Dead        bool
	HasCanto    bool
}

// StatusEffect is a ticking buff/debuff: damage-over-time plus a remaining
// duration, processed once per turn by the Turn/Phase Controller.
type StatusEffect struct {
	NID          NID
	DamagePerTurn int
	Duration      int // turns remaining; decremented each tick, dropped at 0
}

// Unit is the central mutable actor on the board. See spec.md §3 for the
// full invariant list: current_hp in [0,hp_max]; dead implies no position;
// rescuing/rescued_by is symmetric and a rescued unit has no position.
type Unit struct {
	NID       NID
	Name      string
	Team      NID
	ClassID   NID
	Level     int
	Exp       int
	Stats     Stats
	CurrentHP int
	Growths   Stats // percentage chance per stat, 0-100+

	Items  []ItemId
	Skills []SkillId

	WexpByType map[NID]int

	Position *Coord
	Flags    UnitFlags

	Rescuing   *UnitId // this unit is carrying the named unit
	RescuedBy  *UnitId // this unit is being carried by the named unit

	StatusEffects []StatusEffect

	PartyID    PartyId
	PortraitID NID
	Affinity   NID
}

// IsAlly reports whether two units share a team.
func (u *Unit) IsAlly(other *Unit) bool { return u.Team == other.Team }

// Alive is shorthand for !Flags.Dead.
func (u *Unit) Alive() bool { return !u.Flags.Dead }
