// Package call prepares call interfaces and performs forward calls.
//
// An Interface (CIF) describes one function signature. Prepare normalizes
// canonical copies of its type descriptors once; every subsequent forward
// call reuses the normalized layout and marshals values in O(argument
// count) with no further type analysis.
//
// Invoke builds the flat value buffer on the environment's scratch stack:
// the result address first when the result returns by argument, then each
// argument widened or copied according to its normalized kind, then the
// variadic tail pointer when the signature has one. Dispatch failures past
// that point are contract violations and panic.
package call
