// Package mapping lifts the intervalset algebra to collections keyed by
// source (IntervalSetMapping).
//
// Binary operations align their operands key by key. What happens to a key
// present in only one operand is fixed per operation through Policy:
//
//	PolicyPassThrough    Union                          kept unchanged
//	PolicyDropUnmatched  Join, Intersect, FilterAgainst dropped; empty results omitted
//	PolicyLeft           Minus                          left-only kept, right-only dropped
//	PolicyEach           Map, Filter, Coalesce, Dilate  each key transformed alone
//
// Keys are never invented or renamed. Keys are independent, so the per-key
// work fans out across a bounded pool of goroutines and fans back in once all
// of them finish; no worker touches shared state.
package mapping
