// Package batch runs a tool operation over several task IDs and reports the
// outcome of each one.
//
// Tools accept either a single ID, a JSON array or a JSON-encoded array
// string. One failed ID does not stop the others; a canceled context marks
// the remaining IDs as failed without calling the operation.
package batch
