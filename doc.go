// Package epubcfi parses, resolves, compares and generates canonical
// fragment identifiers (CFIs), the portable addresses of positions and
// ranges inside multi-section documents such as ePub books.
//
// The package does not know about any concrete document model. Sections are
// presented through the [Tree] interface, implemented for
// golang.org/x/net/html by package htmltree and for xmlquery by package
// xmltree. Reading progress across sections lives in package progress.
//
// # Parsing
//
// [Parse] accepts bare ("/6/4!/4/2:3") and wrapped ("epubcfi(/6/4!/4/2:3)")
// identifiers. A top-level comma makes a range:
//
//	c, err := epubcfi.Parse("epubcfi(/6/4[ch1]!/4/10,/2/1:1,/3:4)")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(c.IsRange(), c.Collapse(false)) // true /6/4[ch1]!/4/10/2/1:1
//
// Each [Step] keeps the doubled index of the scheme: even indexes address
// child elements, odd indexes the text between them.
//
// # Resolving and generating
//
// [Resolve] walks a section's tree and returns a [Location]; [Generate] is
// its inverse:
//
//	loc, err := epubcfi.Resolve(doc, c)
//	s, err := epubcfi.Generate(doc, loc.SectionIndex, loc.Start)
//
// Identifier assertions ("[ch1]") that no longer match the document are
// reported in [Location.Warnings] instead of failing resolution.
//
// # Ordering
//
// [Compare] is a total order over paths of one document and works with
// slices.SortFunc. [CompareCFI] and [Contains] extend it to ranges.
//
// # Errors
//
// Malformed input yields a [*ParseError] (matching [ErrMalformed]); paths
// that cannot be followed yield a [*ResolutionError] wrapping one of
// [ErrOutOfBounds], [ErrNotElement], [ErrNoSubdocument] or [ErrRangeOrder].
//
// All functions are safe for concurrent use.
package epubcfi
