package models

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// AssetID is an opaque, comparable handle to a loadable resource.
type AssetID uint64

// AssetIDOf derives the identity of the asset stored at path.
func AssetIDOf(path string) AssetID {
	return AssetID(xxhash.Sum64String(path))
}

func (id AssetID) String() string {
	return fmt.Sprintf("asset:%016x", uint64(id))
}
