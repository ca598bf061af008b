// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package screens derives what each poll phase lets the user do from a
ScreenState. It holds no state and does no I/O.

  - Phase1: approve any number of candidates, veto at most one. Lock-in
    needs at least one approval.
  - Phase2: pick exactly one of the carried-over candidates, shown with
    their phase 1 approval counts.
  - Results: the winner is the first result; rows are limited to the
    final votable candidates.

Once a ballot is locked in, locally or as reported by the poll service,
the voting views are read-only.
*/
package screens
