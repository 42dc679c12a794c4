// Package threadmark extracts threaded discussions from dynamically rendered
// forum pages into a reply tree and writes each thread as a markdown document.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., rod/, goquery/, sqlite/).
package threadmark
