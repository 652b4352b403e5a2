package tracing

// Span names.
const (
	SpanLookupResolve = "lookup.resolve"
	SpanSequenceView  = "seqmap.view"
	SpanCommand       = "cli.command"
)

// Span attribute keys.
const (
	AttrLookupContract  = "lookup.contract"
	AttrLookupName      = "lookup.name"
	AttrLookupProfile   = "lookup.profile"
	AttrLookupLifecycle = "lookup.lifecycle"

	AttrSeqContract = "seqmap.contract"
	AttrSeqName     = "seqmap.sequence"
	AttrSeqProfile  = "seqmap.profile"
	AttrSeqScope    = "seqmap.scope"
	AttrSeqItems    = "seqmap.items"

	AttrCommandName = "cli.command"
	AttrManifest    = "cli.manifest"
)
