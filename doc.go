// Package salad loads linked YAML/JSON documents through schema-generated
// loaders and saves them back.
//
// Package salad provides:
//
// - A document value model (Value) that keeps mapping key order
// - Loaders that validate a document and build typed records from it (see loader/)
// - URI expansion and contraction against a base, namespaces and a vocabulary
// - Document directives ($base, $namespaces, $schemas, $graph) and field
// directives ($import, $include) resolved through a Fetcher
// - A ValidationError tree that reports every failure of a document at once
// - Save, the inverse of loading, with identifiers made relative again
//
// Design policy:
// - Keep only public APIs in the root package; put detailed implementations under internal/.
// - Place loader variants under loader/ and the CLI under cmd/salad.
// - Data-shape problems are ValidationErrors; fetch and parse failures are fatal errors.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	opts := salad.NewLoadingOptions(salad.WithVocab(vocab))
//	doc, err := salad.LoadDocumentByURL(ctx, rootLoader, "file:///work/wf.yml", opts)
//	if ve, ok := salad.AsValidationError(err); ok {
//		fmt.Println(ve.PrettyString(0))
//	}
//
//	saved, err := salad.Save(doc, true, "file:///work/wf.yml", true)
//	out, err := salad.EncodeYAML(saved)
package salad
