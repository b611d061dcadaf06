// Package core turns a parsed score table into per-student records.
//
// It holds the domain logic only, independent of any transport or output
// format, so the web server, the CLI and tests share it unchanged.
//
// # Layout
//
// A score table has a student column followed by (subject, percentage)
// column pairs:
//
//	Name   | Math | Percentage | Science | Percentage
//	Alice  | A    | 90         | B       | 80
//
// [Detect] infers that layout from the header. When it cannot, the caller
// asks the user for a [ColumnMapping] and checks it with [ValidateMapping].
//
// # Aggregation
//
// [Aggregate] walks the rows in order and emits one [StudentRecord] per row
// that has at least one pair with both cells filled in. Pairs with a missing
// side are skipped, not scored as zero. Rows are never merged, even when two
// students share a name.
//
// # Error Handling
//
// Failures are reported with sentinel errors ([ErrEmptyTable],
// [ErrNonNumericScore], ...) wrapped in [Issue] values that locate the
// problem. [MapError] turns any error into a coded [UserMessage].
package core
