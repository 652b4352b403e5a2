package testutil

// declData holds one declared sequence item.
type declData struct {
	letter   string
	profiles []string
}

// Decl is a declared sequence item as replayed by tests.
type Decl struct {
	Letter   string
	Profiles []string
}

// DeclOption configures an item during builder setup.
type DeclOption func(*declData)

// In scopes the item to the given profiles.
func In(profiles ...string) DeclOption {
	return func(d *declData) { d.profiles = append(d.profiles, profiles...) }
}
