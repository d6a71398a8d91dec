// Package grid turns the nested congress schedule (days, schedules,
// sessions, events, breaks) into a flat, positioned grid per Day.
//
// Each Day becomes one Tab. Rows are time subdivisions of the Day, columns
// are rooms. Sessions and breaks are placed as non-overlapping rectangles
// and every unoccupied cell inside the used row span is filled with an
// Empty item, so the renderer always receives a rectangular grid.
//
// The package is a pure transformation: no I/O, no clock reads, no shared
// state between Days. Build processes Days concurrently and its output
// depends only on its input.
package grid
