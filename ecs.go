package lumen

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"reflect"
	"slices"
	"sync"
)

// EntityId packs a slot index (low 32 bits) and the slot's generation
// (high 32 bits). Ids of despawned entities never match a live entity.
type EntityId uint64

func makeEntityId(index, gen uint32) EntityId {
	return EntityId(uint64(gen)<<32 | uint64(index))
}

func (id EntityId) Index() uint32      { return uint32(id) }
func (id EntityId) Generation() uint32 { return uint32(id >> 32) }

func (id EntityId) String() string {
	return fmt.Sprintf("%d.%d", id.Index(), id.Generation())
}

type archetypeId uint64
type archetypeKey []componentId
type componentId uint32
type row int
type set[T comparable] = map[T]struct{}

type Ecs struct {
	archetypes  map[archetypeId]*archetype
	entityIndex map[EntityId]archetypeId

	idLock      sync.Mutex
	generations []uint32
	freeIndices []uint32

	componentLock  sync.Mutex
	nextComponent  componentId
	componentTypes map[reflect.Type]componentId
	componentIds   map[componentId]reflect.Type
}

func MakeEcs() Ecs {
	return Ecs{
		archetypes:     make(map[archetypeId]*archetype),
		entityIndex:    make(map[EntityId]archetypeId),
		componentTypes: make(map[reflect.Type]componentId),
		componentIds:   make(map[componentId]reflect.Type),
	}
}

// archetype stores every entity with exactly the same component set, one
// typed slice per component.
type archetype struct {
	id            archetypeId
	key           archetypeKey
	entities      map[EntityId]row
	componentData map[componentId]any
	rows          int
	recycled      []row
}

func (ecs *Ecs) addEntity(components ...any) EntityId {
	return ecs.insertEntity(ecs.nextEntityId(), components...)
}

func (ecs *Ecs) insertEntity(entityId EntityId, components ...any) EntityId {
	archId, arch := ecs.archetypeFor(ecs.keyOf(components...))

	r := ecs.reserveRow(arch)
	arch.entities[entityId] = r
	for _, component := range components {
		ecs.writeComponent(arch, r, component)
	}
	ecs.entityIndex[entityId] = archId
	return entityId
}

// isAlive reports whether entityId refers to an inserted, not yet removed entity.
func (ecs *Ecs) isAlive(entityId EntityId) bool {
	_, ok := ecs.entityIndex[entityId]
	return ok
}

// removeEntity drops the entity and retires its id.
func (ecs *Ecs) removeEntity(entityId EntityId) {
	if !ecs.isAlive(entityId) {
		return
	}
	ecs.releaseRow(entityId)
	ecs.retireEntityId(entityId)
}

func (ecs *Ecs) addComponents(entityId EntityId, components ...any) {
	srcArch, ok := ecs.archetypeOf(entityId)
	if !ok {
		return
	}
	srcRow := srcArch.entities[entityId]

	dstArchId, dstArch := ecs.archetypeFor(dedupAndSortArchetypeKey(append(slices.Clone(srcArch.key), ecs.keyOf(components...)...)))
	dstRow := ecs.reserveRow(dstArch)

	ecs.moveComponents(srcArch, srcRow, dstArch, dstRow)
	for _, component := range components {
		ecs.writeComponent(dstArch, dstRow, component)
	}
	ecs.releaseRow(entityId)

	dstArch.entities[entityId] = dstRow
	ecs.entityIndex[entityId] = dstArchId
}

func (ecs *Ecs) removeComponents(entityId EntityId, components ...any) {
	srcArch, ok := ecs.archetypeOf(entityId)
	if !ok {
		return
	}
	srcRow := srcArch.entities[entityId]

	drop := make(set[componentId])
	for _, id := range ecs.keyOf(components...) {
		drop[id] = struct{}{}
	}
	var dstKey archetypeKey
	for _, id := range srcArch.key {
		if _, ok := drop[id]; !ok {
			dstKey = append(dstKey, id)
		}
	}

	dstArchId, dstArch := ecs.archetypeFor(dstKey)
	dstRow := ecs.reserveRow(dstArch)
	ecs.moveComponents(srcArch, srcRow, dstArch, dstRow)
	ecs.releaseRow(entityId)

	dstArch.entities[entityId] = dstRow
	ecs.entityIndex[entityId] = dstArchId
}

// moveComponents copies the components both archetypes share.
func (ecs *Ecs) moveComponents(srcArch *archetype, srcRow row, dstArch *archetype, dstRow row) {
	for _, id := range srcArch.key {
		dst, ok := dstArch.componentData[id]
		if !ok {
			continue
		}
		reflectSliceSet(dst, int(dstRow), reflectSliceGet(srcArch.componentData[id], int(srcRow)))
	}
}

func (ecs *Ecs) writeComponent(arch *archetype, r row, component any) {
	value := reflect.ValueOf(component)
	if value.Kind() == reflect.Pointer {
		value = value.Elem()
	}
	id := ecs.getComponentId(value.Type())
	reflectSliceSet(arch.componentData[id], int(r), value)
}

func (ecs *Ecs) archetypeOf(entityId EntityId) (*archetype, bool) {
	archId, ok := ecs.entityIndex[entityId]
	if !ok {
		return nil, false
	}
	return ecs.archetypes[archId], true
}

// releaseRow detaches the entity from its archetype, keeping the row for reuse.
func (ecs *Ecs) releaseRow(entityId EntityId) {
	arch, ok := ecs.archetypeOf(entityId)
	if !ok {
		return
	}
	r := arch.entities[entityId]
	zeroRow(arch, r)
	arch.recycled = append(arch.recycled, r)

	delete(arch.entities, entityId)
	delete(ecs.entityIndex, entityId)
}

func zeroRow(arch *archetype, r row) {
	for _, data := range arch.componentData {
		slot := reflect.ValueOf(data).Index(int(r))
		slot.Set(reflect.Zero(slot.Type()))
	}
}

func (ecs *Ecs) archetypeFor(key archetypeKey) (archetypeId, *archetype) {
	id := getArchetypeId(key)
	if arch, ok := ecs.archetypes[id]; ok {
		return id, arch
	}

	arch := &archetype{
		id:            id,
		key:           key,
		entities:      make(map[EntityId]row),
		componentData: make(map[componentId]any),
	}
	for _, cid := range key {
		arch.componentData[cid] = reflectSliceMake(ecs.getComponentType(cid))
	}
	ecs.archetypes[id] = arch
	return id, arch
}

func (ecs *Ecs) reserveRow(arch *archetype) row {
	if n := len(arch.recycled); n > 0 {
		r := arch.recycled[n-1]
		arch.recycled = arch.recycled[:n-1]
		return r
	}

	r := row(arch.rows)
	arch.rows++
	for _, cid := range arch.key {
		arch.componentData[cid] = reflectSliceAppend(arch.componentData[cid], reflect.Zero(ecs.getComponentType(cid)))
	}
	return r
}

// keyOf maps components (structs or pointers to structs) to their sorted,
// deduplicated component ids.
func (ecs *Ecs) keyOf(components ...any) archetypeKey {
	var key archetypeKey
	for _, component := range components {
		t := reflect.TypeOf(component)
		if t != nil && t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		if t == nil || t.Kind() != reflect.Struct {
			panic(fmt.Errorf("expected component to be a struct or a pointer to a struct, got %v", t))
		}
		key = append(key, ecs.getComponentId(t))
	}
	return dedupAndSortArchetypeKey(key)
}

func dedupAndSortArchetypeKey(key archetypeKey) archetypeKey {
	res := slices.Clone(key)
	slices.Sort(res)
	return slices.Compact(res)
}

// getArchetypeId hashes a canonical key. Ids are cheap to compare but may
// collide; the key itself is the ground truth.
func getArchetypeId(key archetypeKey) archetypeId {
	hash := fnv.New64a()
	var b [4]byte
	for _, cid := range key {
		binary.LittleEndian.PutUint32(b[:], uint32(cid))
		hash.Write(b[:])
	}
	return archetypeId(hash.Sum64())
}

func (ecs *Ecs) nextEntityId() EntityId {
	ecs.idLock.Lock()
	defer ecs.idLock.Unlock()

	if n := len(ecs.freeIndices); n > 0 {
		idx := ecs.freeIndices[n-1]
		ecs.freeIndices = ecs.freeIndices[:n-1]
		return makeEntityId(idx, ecs.generations[idx])
	}
	idx := uint32(len(ecs.generations))
	ecs.generations = append(ecs.generations, 1)
	return makeEntityId(idx, 1)
}

func (ecs *Ecs) retireEntityId(entityId EntityId) {
	ecs.idLock.Lock()
	defer ecs.idLock.Unlock()

	idx := entityId.Index()
	if int(idx) >= len(ecs.generations) || ecs.generations[idx] != entityId.Generation() {
		return
	}
	ecs.generations[idx]++
	if ecs.generations[idx] == 0 {
		ecs.generations[idx] = 1
	}
	ecs.freeIndices = append(ecs.freeIndices, idx)
}

func (ecs *Ecs) getComponentId(componentType reflect.Type) componentId {
	ecs.componentLock.Lock()
	defer ecs.componentLock.Unlock()

	if id, ok := ecs.componentTypes[componentType]; ok {
		return id
	}
	id := ecs.nextComponent
	ecs.nextComponent++
	ecs.componentTypes[componentType] = id
	ecs.componentIds[id] = componentType
	return id
}

func (ecs *Ecs) getComponentType(id componentId) reflect.Type {
	ecs.componentLock.Lock()
	defer ecs.componentLock.Unlock()

	if t, ok := ecs.componentIds[id]; ok {
		return t
	}
	panic("ComponentID not registered")
}
