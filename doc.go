// Package fiobank reconstructs an auditable investment portfolio from Fio
// broker and bank statement exports. It is designed to be deterministic,
// strict, and resumable: the same statements always produce the same
// portfolio, any unexpected record aborts loudly, and new statement periods
// can be folded into a previously built portfolio without double counting.
//
// The core functionalities include:
//   - Statement Merging: combining multiple, possibly overlapping statement
//     periods into one continuous, deduplicated, chronologically sorted
//     sequence of raw records, rejecting period gaps and mixed accounts.
//   - Transaction Classification: assigning a canonical transaction type to
//     each raw record through an ordered, language-aware rule table over the
//     record's direction, market label and free text.
//   - Reconciliation: fusing related raw records (a dividend and its
//     withholding tax, the two legs of a corporate action) into one or more
//     canonical transactions with deterministic identifiers.
//   - Invariant Validation: proving each canonical transaction internally
//     consistent through a per-type table of sign and nullity predicates and
//     exact decimal reconciliation of gross and net values.
//   - Portfolio Accumulation: folding canonical transactions into running
//     cash balances and per-symbol positions.
//
// This package serves as the foundational logic for the `fiolio` command-line
// tool. All arithmetic uses exact decimals; the engine performs no I/O.
package fiobank
