package slime

import (
	"testing"
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

	// Archetype iteration order is not defined, collect and compare
	gotA := make(map[EntityId]Comp1)
	gotB := make(map[EntityId]Comp2)

	query.Map(func(entityId EntityId, comp1 *Comp1, comp2 *Comp2) bool {
		gotA[entityId] = *comp1
		gotB[entityId] = *comp2
		return true
	})

	if 2 != len(gotA) {
		t.Errorf("Unexpected number of results, got %v", len(gotA))
	}
	if (Comp1{a: 2}) != gotA[id2] || (Comp2{b: 1.37}) != gotB[id2] {
		t.Errorf("Unexpected components for entity %v: %v / %v", id2, gotA[id2], gotB[id2])
	}
	if (Comp1{a: 3}) != gotA[id3] || (Comp2{b: 4.20}) != gotB[id3] {
		t.Errorf("Unexpected components for entity %v: %v / %v", id3, gotA[id3], gotB[id3])
	}
}

func TestQuery_MapStopsWhenFalse(t *testing.T) {
	type Comp1 struct{ a int }

	ecs := MakeEcs()
	ecs.addEntity(Comp1{a: 1})
	ecs.addEntity(Comp1{a: 2})
	ecs.addEntity(Comp1{a: 3})

	query := Query1[Comp1]{ecs: &ecs}

	visited := 0
	query.Map(func(entityId EntityId, comp1 *Comp1) bool {
		visited += 1
		return false
	})

	if 1 != visited {
		t.Errorf("Expected the visit to stop after the first entity, got %v", visited)
	}
}

func TestQuery_MapMutatesInPlace(t *testing.T) {
	type Comp1 struct{ a int }

	ecs := MakeEcs()
	id := ecs.addEntity(Comp1{a: 1})

	query := Query1[Comp1]{ecs: &ecs}

	query.Map(func(entityId EntityId, comp1 *Comp1) bool {
		comp1.a = 42
		return true
	})

	query.Map(func(entityId EntityId, comp1 *Comp1) bool {
		if entityId == id && 42 != comp1.a {
			t.Errorf("Expected mutation through the query pointer to stick, got %v", comp1.a)
		}
		return true
	})
}

func TestQuery_MapOptionals(t *testing.T) {
	type Comp1 struct{ a int }
	type Comp2 struct{ b float32 }

	ecs := MakeEcs()
	idBare := ecs.addEntity(Comp1{a: 1})
	idBoth := ecs.addEntity(Comp1{a: 2}, Comp2{b: 2.5})

	query := Query2[Comp1, Comp2]{ecs: &ecs}

	gotB := make(map[EntityId]*Comp2)
	query.Map(func(entityId EntityId, comp1 *Comp1, comp2 *Comp2) bool {
		gotB[entityId] = comp2
		return true
	}, Comp2{})

	if 2 != len(gotB) {
		t.Errorf("Expected both entities to match with Comp2 optional, got %v", len(gotB))
	}
	if nil != gotB[idBare] {
		t.Errorf("Expected nil Comp2 for the bare entity")
	}
	if nil == gotB[idBoth] || 2.5 != gotB[idBoth].b {
		t.Errorf("Expected Comp2 value for the full entity, got %v", gotB[idBoth])
	}
}
