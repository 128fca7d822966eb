package generator

import (
	"sync"

	"tilesplit/pkg/common"

	"github.com/google/btree"
)

type tileItem common.TileID

func (i tileItem) Less(than btree.Item) bool {
	return i < than.(tileItem)
}

// KeySet is an ordered set of distinct tile ids.
type KeySet struct {
	tree *btree.BTree
	lock sync.RWMutex
}

func NewKeySet(degree int) *KeySet {
	return &KeySet{
		tree: btree.New(degree),
	}
}

// Add inserts key and reports whether it was new.
func (ks *KeySet) Add(key common.TileID) bool {
	ks.lock.Lock()
	defer ks.lock.Unlock()
	return ks.tree.ReplaceOrInsert(tileItem(key)) == nil
}

func (ks *KeySet) Contains(key common.TileID) bool {
	ks.lock.RLock()
	defer ks.lock.RUnlock()
	return ks.tree.Has(tileItem(key))
}

func (ks *KeySet) Len() int {
	ks.lock.RLock()
	defer ks.lock.RUnlock()
	return ks.tree.Len()
}

func (ks *KeySet) Max() (common.TileID, bool) {
	ks.lock.RLock()
	defer ks.lock.RUnlock()
	it := ks.tree.Max()
	if it == nil {
		return 0, false
	}
	return common.TileID(it.(tileItem)), true
}

// Ascend visits keys in ascending order until fn returns false.
func (ks *KeySet) Ascend(fn func(key common.TileID) bool) {
	ks.lock.RLock()
	defer ks.lock.RUnlock()

	ks.tree.Ascend(func(i btree.Item) bool {
		return fn(common.TileID(i.(tileItem)))
	})
}

func (ks *KeySet) Slice() []common.TileID {
	keys := make([]common.TileID, 0, ks.Len())
	ks.Ascend(func(key common.TileID) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}
