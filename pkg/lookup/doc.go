// Package lookup is a small component container: a Registry records how to
// obtain values of a contract type under a name, optionally inside a named
// profile, and a Container resolves them.
//
// Registrations come in two flavours. Add appends an instance to the
// contract's family; Use appends it and makes it the family's default.
// Profile registrations shadow root registrations of the same name when
// resolving inside that profile:
//
//	reg := lookup.NewRegistry()
//	lookup.Use[Greeter](reg, lookup.Constructor(NewEnglish))
//	reg.Profile("fr", func(r lookup.Registrar) {
//		lookup.Use[Greeter](r, lookup.Constructor(NewFrench))
//	})
//
//	c, err := lookup.NewContainer(reg)
//	g, err := lookup.Get[Greeter](c.ForProfile("fr"), "")
//
// Constructors are plain functions returning R or (R, error). Their arguments
// are resolved by type, unless a Binding on the instance overrides them.
// A constructor taking a single struct that embeds In exposes each exported
// field as a named parameter.
package lookup
