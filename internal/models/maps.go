// internal/models/maps.go
package models

// MapPool is the fixed ordered veto universe. Every lobby starts its ban
// phase with a working copy of this list; availableMaps plus bannedMaps of
// any lobby always re-assemble to exactly this pool.
var MapPool = []string{
	"Hanami",
	"Rust",
	"Zone 7",
	"Dune",
	"Breeze",
	"Province",
	"Sandstone",
}

// MapPoolCopy returns a fresh working copy of the pool.
func MapPoolCopy() []string {
	maps := make([]string, len(MapPool))
	copy(maps, MapPool)
	return maps
}

// InMapPool reports whether name is part of the veto universe at all.
func InMapPool(name string) bool {
	for _, m := range MapPool {
		if m == name {
			return true
		}
	}
	return false
}
