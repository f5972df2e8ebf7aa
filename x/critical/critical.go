// Package critical guards short read-modify-write sequences that are shared
// between interrupt handlers and the main loop.
//
//	st := cs.Enter()
//	counter++
//	cs.Exit(st)
//
// Sections must be kept short and must not nest on the same Section.
package critical
