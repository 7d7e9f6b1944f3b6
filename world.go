package lumen

import (
	"github.com/google/uuid"
)

// ActiveWorld identifies the world instance currently being rendered.
// Every switch gets a fresh ID, even when re-entering a world by name.
type ActiveWorld struct {
	ID   uuid.UUID
	Name string
}

func NewActiveWorld(name string) *ActiveWorld {
	return &ActiveWorld{ID: uuid.New(), Name: name}
}

// Switch moves to a new world instance and returns its ID. The lighting
// module notices the change at the start of the next frame.
func (w *ActiveWorld) Switch(name string) uuid.UUID {
	w.ID = uuid.New()
	w.Name = name
	return w.ID
}
