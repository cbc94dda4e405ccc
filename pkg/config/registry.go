package config

// Persistent state keys (Registry)
const (
	KeyViewMode              = "view_mode"
	KeySortOption            = "sort_option"
	KeyNotifyNewCafe         = "notify_new_cafe"
	KeyNotifyFavoriteOpening = "notify_favorite_opening"
	KeyLastLocationLat       = "last_location_lat"
	KeyLastLocationLon       = "last_location_lon"
)
