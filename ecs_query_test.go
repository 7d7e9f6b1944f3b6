package lumen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuery_Map(t *testing.T) {
	type Comp1 struct{ a int }
	type Comp2 struct{ b float32 }
	type Comp3 struct{}

	ecs := MakeEcs()
	ecs.addEntity(Comp1{a: 1})                                 // comp1 only                       -- shouldn't match
	id2 := ecs.addEntity(Comp1{a: 2}, Comp2{b: 1.37})          // comp1 & comp2                    -- should match
	id3 := ecs.addEntity(Comp1{a: 3}, Comp2{b: 4.20}, Comp3{}) // comp1 & comp2 + something extra  -- should match
	ecs.addEntity(Comp1{a: 4}, Comp3{})                        // comp1 + something extra          -- shouldn't match
	ecs.addEntity(Comp2{b: 3.14})                              // comp2 only                       -- shouldn't match

	query := Query2[Comp1, Comp2]{ecs: &ecs}

	got := map[EntityId]int{}
	query.Map(func(entityId EntityId, comp1 *Comp1, comp2 *Comp2) bool {
		got[entityId] = comp1.a
		return true
	})

	assert.Equal(t, map[EntityId]int{id2: 2, id3: 3}, got)
}

func TestQuery_MapWritesThrough(t *testing.T) {
	type Health struct{ hp int }

	ecs := MakeEcs()
	id := ecs.addEntity(Health{hp: 10})

	Query1[Health]{ecs: &ecs}.Map(func(_ EntityId, h *Health) bool {
		h.hp -= 3
		return true
	})

	arch, _ := ecs.archetypeOf(id)
	col := arch.componentData[componentIdOf[Health](&ecs)].([]Health)
	assert.Equal(t, 7, col[arch.entities[id]].hp)
}

func TestQuery_Optionals(t *testing.T) {
	type Pos struct{ x int }
	type Tag struct{ name string }
	type Extra struct{}

	ecs := MakeEcs()
	plain := ecs.addEntity(Pos{1}, Extra{})
	tagged := ecs.addEntity(Pos{2}, Tag{"lit"}, Extra{})
	ecs.addEntity(Pos{3})

	seen := map[EntityId]*Tag{}
	Query3[Pos, Tag, Extra]{ecs: &ecs}.Map(func(eid EntityId, _ *Pos, tag *Tag, _ *Extra) bool {
		seen[eid] = tag
		return true
	}, Tag{})

	assert.Len(t, seen, 2)
	assert.Nil(t, seen[plain])
	if assert.NotNil(t, seen[tagged]) {
		assert.Equal(t, "lit", seen[tagged].name)
	}
}

func TestQuery_StopEarly(t *testing.T) {
	type Comp struct{}

	ecs := MakeEcs()
	for i := 0; i < 5; i++ {
		ecs.addEntity(Comp{})
	}

	calls := 0
	Query1[Comp]{ecs: &ecs}.Map(func(EntityId, *Comp) bool {
		calls++
		return false
	})
	assert.Equal(t, 1, calls)
}
