// Package attrib correlates decoded replay events into per-player
// kill/death/assist statistics.
//
// Kill records carry no timestamp of their own, so attribution leans on
// credit records: every combat event pays out a burst of credit records
// sharing one simulation-tick timestamp. Credits are grouped by exact
// timestamp equality, a kill adopts the nearest group within a byte
// proximity window, and the group's value pattern identifies the killer
// confirmation and the assisting players.
//
// Attribution is inherently sequential: it depends on the ordered stream
// position of nearby records. The engine is a pure function of the decoded
// event sequence; running it twice yields identical results, and no tally
// is ever fabricated for a kill that cannot be matched; unmatched events
// are surfaced in the result for review instead.
package attrib
