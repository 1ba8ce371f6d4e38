// Package loader provides the loader variants a schema compiler wires
// together to validate and construct documents.
//
// Overview
//   - Leaves: Any, Null, String/Int/Float/Bool (Primitive[T]), Enum, Expression.
//   - Containers: Array, Map, IdMap.
//   - Records: Record (a FromDocFunc) and RecordOf (a Registry entry).
//   - Choice: Union tries alternates in order and aggregates every failure.
//   - Decorators: URI, Optional, SecondaryDSL, TypeDSL wrap an inner loader.
//
// Every loader implements salad.Loader. Loaders are immutable after
// construction and safe for concurrent use.
package loader
