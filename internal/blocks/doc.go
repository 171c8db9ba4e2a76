// Package blocks is the built-in block catalog: the declarations the
// compiler solves against and the lowering functions that turn typed
// nodes into program steps.
//
// A block contributes two registrations under one kind string: a
// *patch.BlockDecl (ports, axis specs, state cells, composite bodies)
// and a lower.Func. The compiler only ever sees the patch.Catalog and
// lower.LookupFunc interfaces, so alternate catalogs (tests, embedded
// hosts) can swap the whole set.
//
// Adapter blocks additionally register a payload conversion rule; the
// normalizer consults those rules when an edge's declared payloads
// disagree.
package blocks
