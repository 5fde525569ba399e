// Package core provides the business logic of the product CSV import.
//
// The package has no transport dependencies. The store is reached through
// the [Store] interface, so the import can run against PostgreSQL, a fake,
// or anything else that offers a transaction.
//
// # Import Run
//
// [Importer.Run] moves through a fixed sequence of phases:
//
//	start -> table_ensured -> transaction_open -> row_processing* -> committed
//	                                    \________________________-> aborted
//
//  1. The product table is created if missing ([Store.EnsureSchema]).
//  2. One transaction is opened for the whole file.
//  3. Rows are read lazily with a [RowReader]; a UTF-8 byte order mark is
//     removed and invalid UTF-8 is replaced.
//  4. Each row becomes a record via [ProductFromRow]. The country value is
//     read from the "contry" header.
//  5. At end of input the records are inserted and the transaction commits.
//
// Any failure after step 2 rolls the transaction back, so a run either
// commits every row of the file or none. Re-running the same file appends
// the rows again; there is no duplicate detection.
//
// # Preview
//
// [Preview] checks a file without touching the store and reports every
// problem it finds instead of stopping at the first.
//
// # Error Handling
//
// Failures are returned as [*Error] values classified by [Kind]:
// configuration, connection, data or internal. [MapError] turns any error
// into an operator-facing [UserMessage] with a support code:
//
//   - CFG001: configuration
//   - DB001-DB007: database and connection errors
//   - VAL001-VAL005: row validation
//   - FILE001-FILE002: input file errors
package core
