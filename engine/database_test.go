package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabaseMergeAndLookup(t *testing.T) {
	db := NewDatabase()
	dir := t.TempDir()
	path := filepath.Join(dir, "data.yaml")
	content := `
classes:
  - nid: lord
    name: Lord
    base: {hpmax: 20, str: 8, mov: 5}
weapon_types:
  - nid: sword
  - nid: lance
weapon_advantage:
  sword:
    lance: {hitdelta: 15, damagedelta: 0}
movement_cost:
  foot:
    plain: 1
    forest: 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, db.LoadDatabaseFile(path))

	class, err := db.GetClass("lord")
	require.NoError(t, err)
	assert.Equal(t, "Lord", class.Name)

	assert.Equal(t, 1, db.MovementCostFor("foot", "plain"))
	assert.Equal(t, ImpassableCost, db.MovementCostFor("foot", "mountain"))

	_, err = db.GetClass("missing")
	require.Error(t, err)
	var ee *EngineError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, KindResource, ee.Kind)
}

func TestWeaponRankLadder(t *testing.T) {
	db := NewDatabase()
	db.WeaponRankTable["sword"] = []WeaponRankStep{
		{ExpRequired: 0, Rank: "E"},
		{ExpRequired: 31, Rank: "D"},
		{ExpRequired: 71, Rank: "C"},
	}
	assert.Equal(t, "E", db.RankForExp("sword", 0))
	assert.Equal(t, "D", db.RankForExp("sword", 50))
	assert.Equal(t, "C", db.RankForExp("sword", 200))
}
