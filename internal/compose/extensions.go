package compose

import "github.com/Faultbox/midgard-avatar/pkg/meta"

// Extension metadata keys.
const (
	ExtensionsKey  = "gltfExtensions"
	HubsComponents = "MOZ_hubs_components"
)

// ensureHubsComponents makes sure userData has a map-valued extension
// container with a map-valued hubs-components entry, and returns that entry.
func ensureHubsComponents(userData *meta.Map) *meta.Map {
	return userData.EnsureMap(ExtensionsKey).EnsureMap(HubsComponents)
}

// hubsComponents returns the hubs-components object of userData, or nil when
// absent. userData is not modified.
func hubsComponents(userData *meta.Map) *meta.Map {
	ext, ok := userData.Map(ExtensionsKey)
	if !ok {
		return nil
	}
	hubs, _ := ext.Map(HubsComponents)
	return hubs
}

// CombineHubsComponents shallow-merges the hubs-components object of src into
// dst's, creating dst's container when needed. Conflicting keys take src's
// value and nested objects are replaced, not merged. src is left untouched.
// A nil dst is replaced by a new map, which is returned.
func CombineHubsComponents(dst, src *meta.Map) *meta.Map {
	if dst == nil {
		dst = meta.NewMap()
	}
	ensureHubsComponents(dst).Merge(hubsComponents(src))
	return dst
}
