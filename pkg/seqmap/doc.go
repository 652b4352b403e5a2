// Package seqmap declares ordered sequences of items whose membership varies
// by profile, and registers one lazily evaluated view per profile with a
// lookup registry.
//
// A sequence is declared through a chain of step interfaces, each exposing
// only the calls that are legal at that point:
//
//	err := seqmap.ForSequenceOf[Step](reg).
//		UseSequence().
//		AddNext(NewValidate).
//		AddNext(NewAudit, "prod").
//		Ctor(seqmap.Param[string]()).IsValue("audit.log").
//		NextIsNamed("notify", "prod", "staging").
//		End()
//
// Items declared without profiles belong to the default profile, which is
// merged into every profile's view. Items declared with profiles belong to
// exactly those profiles. Views keep declaration order and never
// de-duplicate:
//
//	c, _ := lookup.NewContainer(reg)
//	steps, _ := seqmap.Resolve[Step](c.ForProfile("prod"), "")
//	for step, err := range steps {
//		...
//	}
package seqmap
