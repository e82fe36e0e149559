package kv

import (
	"fmt"

	"github.com/pkg/errors"
)

const (
	// MaxPersistTo is the largest number of nodes a write can be
	// required to persist to: the active node plus three replicas.
	MaxPersistTo = 4

	// MaxReplicateTo is the largest number of replicas a write can be
	// required to reach.
	MaxReplicateTo = 3
)

// Durability describes how strongly a write must be acknowledged
// before it is considered successful. The zero value asks for no
// durability at all.
type Durability struct {
	persistTo   int
	replicateTo int
}

// NewDurability returns a Durability requiring the write to be
// persisted to disk on persistTo nodes and held in memory on
// replicateTo replicas. It fails with ErrInvalidConfiguration when
// persistTo is outside 0..MaxPersistTo or replicateTo is outside
// 0..MaxReplicateTo.
func NewDurability(persistTo, replicateTo int) (Durability, error) {
	if persistTo < 0 || persistTo > MaxPersistTo {
		return Durability{}, InvalidConfiguration(
			errors.Errorf("persistTo must be between 0 and %d, got %d", MaxPersistTo, persistTo))
	}
	if replicateTo < 0 || replicateTo > MaxReplicateTo {
		return Durability{}, InvalidConfiguration(
			errors.Errorf("replicateTo must be between 0 and %d, got %d", MaxReplicateTo, replicateTo))
	}
	return Durability{persistTo: persistTo, replicateTo: replicateTo}, nil
}

// PersistTo returns the number of nodes the write must be persisted to.
func (d Durability) PersistTo() int {
	return d.persistTo
}

// ReplicateTo returns the number of replicas the write must reach.
func (d Durability) ReplicateTo() int {
	return d.replicateTo
}

func (d Durability) String() string {
	return fmt.Sprintf("persistTo=%d replicateTo=%d", d.persistTo, d.replicateTo)
}
