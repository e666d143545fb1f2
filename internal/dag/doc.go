// Package dag provides the directed acyclic graph at the heart of the flow
// engine: node registration, input resolution, cycle detection, and a
// deterministic topological ordering.
package dag
