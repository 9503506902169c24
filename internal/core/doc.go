// Package core provides the unit conversion engine and the service built
// around it.
//
// This package holds all conversion logic independent of any UI or
// transport layer. The web server and the CLI both call into it.
//
// # Engine
//
// [ConvertLinear] scales a value through the implicit base unit of a linear
// category (the unit whose factor is 1):
//
//	result = value * factor(from) / factor(to)
//
// [ConvertTemperature] converts between C, F and K, always pivoting through
// Celsius. [Convert] picks one of the two from the category kind alone; unit
// names are never inspected to guess the kind.
//
// Both are pure functions over immutable inputs and need no locking.
//
// # Errors
//
// Every rejected request is a [*ConversionError] with a kind (unknown unit,
// invalid factor, division by zero, overflow, invalid value, unknown
// category) and the offending unit, unescaped. [MapError] turns any error
// into a [UserMessage] with a support code:
//
//   - CONV001-CONV005: engine errors
//   - CAT001: unknown category
//   - REQ001-REQ005: malformed, oversized, throttled or cancelled requests
//   - HIST001: history store failures
//
// # Service
//
// [Service] resolves categories from a loaded catalog, runs the engine,
// and records every attempt in a [HistoryStore] ([MemoryHistory] or
// [PgHistory]). Batches are bounded in size and in concurrency by a
// [BatchLimiter]. [Service.StartHistoryPurger] enforces history retention
// in the background.
package core
