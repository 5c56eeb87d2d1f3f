package shared

// Accommodation permissions declared for RBAC.
const (
	PermAccommodationView      = "accommodation.view"
	PermAccommodationCreate    = "accommodation.create"
	PermAccommodationUpdateOwn = "accommodation.update.own"
	PermAccommodationUpdateAny = "accommodation.update.any"
	PermAccommodationDeleteOwn = "accommodation.delete.own"
	PermAccommodationDeleteAny = "accommodation.delete.any"
)

// Destination permissions declared for RBAC.
const (
	PermDestinationView      = "destination.view"
	PermDestinationCreate    = "destination.create"
	PermDestinationUpdateAny = "destination.update.any"
	PermDestinationDeleteAny = "destination.delete.any"
)

// Tag permissions declared for RBAC.
const (
	PermTagView      = "tag.view"
	PermTagCreate    = "tag.create"
	PermTagUpdateAny = "tag.update.any"
	PermTagDeleteAny = "tag.delete.any"
)

// CatalogScopes lists all permissions related to the public catalog.
func CatalogScopes() []string {
	return []string{
		PermAccommodationView,
		PermAccommodationCreate,
		PermAccommodationUpdateOwn,
		PermAccommodationUpdateAny,
		PermAccommodationDeleteOwn,
		PermAccommodationDeleteAny,
		PermDestinationView,
		PermDestinationCreate,
		PermDestinationUpdateAny,
		PermDestinationDeleteAny,
		PermTagView,
		PermTagCreate,
		PermTagUpdateAny,
		PermTagDeleteAny,
	}
}
