// Package sim provides the allocation simulation engine: a deterministic state
// machine in which a driver repeatedly selects one item from a finite set,
// each item consuming several scarce resources and yielding a value.
//
// # Reading Guide
//
// Start with these files:
//   - instance.go: Item, Instance and the read-only InstanceView
//   - generator.go: InstanceGenerator (static, shared, fresh modes)
//   - env.go: Environment.Reset / Environment.Step, rewards and Info
//   - state.go: the per-episode state and its invariants
//   - mask.go: ComputeMask, the pure action-mask derivation
//   - observation.go: observation matrix layout and normalization
//
// # Architecture
//
// The sim package owns the core; collaborators live in sub-packages:
//   - sim/solver/: exact branch-and-bound solver and greedy baseline
//   - sim/policy/: drivers that pick actions (random, greedy, exact, plan replay) and
//     the Run episode loop
//   - sim/trace/: per-episode step records and summaries
//   - sim/store/: SQLite ledger of episode outcomes
//
// Randomness is always injected: generators take a seed, usually obtained
// from PartitionedRNG.SeedFor, so a seed reproduces every instance.
package sim
