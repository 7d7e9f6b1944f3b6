package lumen

import (
	"reflect"
)

// Queries visit every entity carrying all of their component types.
// Components passed as optionals may be missing; their pointer is nil then.
// Returning false from the callback stops the walk.
type Query1[A any] struct{ ecs *Ecs }
type Query2[A, B any] struct{ ecs *Ecs }
type Query3[A, B, C any] struct{ ecs *Ecs }

func MakeQuery1[A any](cmd *Commands) Query1[A]             { return Query1[A]{ecs: cmd.app.ecs} }
func MakeQuery2[A, B any](cmd *Commands) Query2[A, B]       { return Query2[A, B]{ecs: cmd.app.ecs} }
func MakeQuery3[A, B, C any](cmd *Commands) Query3[A, B, C] { return Query3[A, B, C]{ecs: cmd.app.ecs} }

func (q Query1[A]) Map(m func(EntityId, *A) bool, optionals ...any) {
	idA := componentIdOf[A](q.ecs)
	opt := identifyOptionals(q.ecs, optionals...)

	for _, arch := range q.ecs.archetypes {
		colA, ok := column[A](arch, idA, opt)
		if !ok {
			continue
		}
		for entityId, r := range arch.entities {
			if !m(entityId, colA.at(r)) {
				return
			}
		}
	}
}

func (q Query2[A, B]) Map(m func(EntityId, *A, *B) bool, optionals ...any) {
	idA, idB := componentIdOf[A](q.ecs), componentIdOf[B](q.ecs)
	opt := identifyOptionals(q.ecs, optionals...)

	for _, arch := range q.ecs.archetypes {
		colA, okA := column[A](arch, idA, opt)
		colB, okB := column[B](arch, idB, opt)
		if !okA || !okB {
			continue
		}
		for entityId, r := range arch.entities {
			if !m(entityId, colA.at(r), colB.at(r)) {
				return
			}
		}
	}
}

func (q Query3[A, B, C]) Map(m func(EntityId, *A, *B, *C) bool, optionals ...any) {
	idA, idB, idC := componentIdOf[A](q.ecs), componentIdOf[B](q.ecs), componentIdOf[C](q.ecs)
	opt := identifyOptionals(q.ecs, optionals...)

	for _, arch := range q.ecs.archetypes {
		colA, okA := column[A](arch, idA, opt)
		colB, okB := column[B](arch, idB, opt)
		colC, okC := column[C](arch, idC, opt)
		if !okA || !okB || !okC {
			continue
		}
		for entityId, r := range arch.entities {
			if !m(entityId, colA.at(r), colB.at(r), colC.at(r)) {
				return
			}
		}
	}
}

// queryColumn is one component column of an archetype; a nil slice stands
// for an absent optional component.
type queryColumn[T any] struct {
	data []T
}

func (c queryColumn[T]) at(r row) *T {
	if c.data == nil {
		return nil
	}
	return &c.data[r]
}

func column[T any](arch *archetype, id componentId, optionals set[componentId]) (queryColumn[T], bool) {
	if data, ok := arch.componentData[id]; ok {
		return queryColumn[T]{data: data.([]T)}, true
	}
	if _, ok := optionals[id]; ok {
		return queryColumn[T]{}, true
	}
	return queryColumn[T]{}, false
}

func identifyOptionals(ecs *Ecs, components ...any) set[componentId] {
	res := make(set[componentId])
	for _, c := range components {
		t := reflect.TypeOf(c)
		if t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		res[ecs.getComponentId(t)] = struct{}{}
	}
	return res
}

func componentIdOf[T any](ecs *Ecs) componentId {
	return ecs.getComponentId(reflect.TypeOf((*T)(nil)).Elem())
}
