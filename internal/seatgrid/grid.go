// Package seatgrid models a room's physical seat layout as a sparse map from
// (row, column) to seat class, and computes the seat changes needed to move a
// room from one layout to another.
package seatgrid

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Class is the pricing tier of a seat. None marks a grid slot with no seat.
type Class string

const (
	Single Class = "SINGLE"
	Double Class = "DOUBLE"
	None   Class = "NONE"
)

// ParseClass normalizes s into a Class.
func ParseClass(s string) (Class, error) {
	switch c := Class(strings.ToUpper(strings.TrimSpace(s))); c {
	case Single, Double, None:
		return c, nil
	}
	return "", fmt.Errorf("unknown seat class %q", s)
}

// Bookable reports whether a ticket is issued for seats of this class.
func (c Class) Bookable() bool { return c == Single || c == Double }

// Cell addresses one grid slot. Both indices are 0-based.
type Cell struct {
	Row int
	Col int
}

// Name is the seat label shown to customers, e.g. "B3".
func (c Cell) Name() string { return DisplayName(c.Row, c.Col) }

// CellError reports an invalid slot in a submitted grid.
type CellError struct {
	Row    int
	Col    int
	Reason string
}

func (e *CellError) Error() string {
	if e.Col < 0 {
		return fmt.Sprintf("seats[%d]: %s", e.Row, e.Reason)
	}
	return fmt.Sprintf("seats[%d][%d]: %s", e.Row, e.Col, e.Reason)
}

// Field is the request path of the offending slot.
func (e *CellError) Field() string {
	if e.Col < 0 {
		return fmt.Sprintf("seats[%d]", e.Row)
	}
	return fmt.Sprintf("seats[%d][%d]", e.Row, e.Col)
}

// Layout is a rectangular seat grid.
type Layout struct {
	rows  int
	cols  int
	cells map[Cell]Class
}

// FromRows validates a rows-of-columns grid of class names. The grid must be
// non-empty and rectangular.
func FromRows(rows [][]string) (Layout, error) {
	if len(rows) == 0 {
		return Layout{}, &CellError{Row: 0, Col: -1, Reason: "grid must have at least one row"}
	}
	width := len(rows[0])
	if width == 0 {
		return Layout{}, &CellError{Row: 0, Col: -1, Reason: "row must have at least one column"}
	}
	l := Layout{rows: len(rows), cols: width, cells: make(map[Cell]Class, len(rows)*width)}
	for r, row := range rows {
		if len(row) != width {
			return Layout{}, &CellError{Row: r, Col: -1, Reason: fmt.Sprintf("expected %d columns, got %d", width, len(row))}
		}
		for c, raw := range row {
			class, err := ParseClass(raw)
			if err != nil {
				return Layout{}, &CellError{Row: r, Col: c, Reason: err.Error()}
			}
			l.cells[Cell{Row: r, Col: c}] = class
		}
	}
	return l, nil
}

// FromCells rebuilds a layout from stored seats. Missing slots read as None.
func FromCells(rows, cols int, cells map[Cell]Class) Layout {
	l := Layout{rows: rows, cols: cols, cells: make(map[Cell]Class, len(cells))}
	for cell, class := range cells {
		if l.Contains(cell) {
			l.cells[cell] = class
		}
	}
	return l
}

func (l Layout) Rows() int { return l.rows }
func (l Layout) Cols() int { return l.cols }

// Contains reports whether cell lies inside the grid shape.
func (l Layout) Contains(cell Cell) bool {
	return cell.Row >= 0 && cell.Row < l.rows && cell.Col >= 0 && cell.Col < l.cols
}

// At returns the class at cell, None for empty or out-of-shape slots.
func (l Layout) At(cell Cell) Class {
	if class, ok := l.cells[cell]; ok {
		return class
	}
	return None
}

// Cells lists every slot in row-major order.
func (l Layout) Cells() []Cell {
	out := make([]Cell, 0, l.rows*l.cols)
	for r := 0; r < l.rows; r++ {
		for c := 0; c < l.cols; c++ {
			out = append(out, Cell{Row: r, Col: c})
		}
	}
	return out
}

// Bookable counts the slots that receive a ticket per showtime.
func (l Layout) Bookable() int {
	n := 0
	for _, class := range l.cells {
		if class.Bookable() {
			n++
		}
	}
	return n
}

// SeatRef is a stored seat as seen by Diff.
type SeatRef struct {
	ID    uint64
	Class Class
}

// Placement is a seat to create or reclassify.
type Placement struct {
	ID    uint64 // zero for seats to create
	Cell  Cell
	Class Class
}

// Plan is the set of seat mutations that turns one layout into another.
// Seats kept in place retain their identity.
type Plan struct {
	Delete []uint64
	Create []Placement
	Update []Placement
}

// Empty reports whether applying the plan would change nothing.
func (p Plan) Empty() bool {
	return len(p.Delete) == 0 && len(p.Create) == 0 && len(p.Update) == 0
}

// Diff computes the plan that moves the stored seats to next. Seats outside
// next's shape (removed rows or columns) are deleted, new slots are created,
// and slots whose class changed are updated in place.
func Diff(existing map[Cell]SeatRef, next Layout) Plan {
	var p Plan
	for cell, seat := range existing {
		if !next.Contains(cell) {
			p.Delete = append(p.Delete, seat.ID)
		}
	}
	sort.Slice(p.Delete, func(i, j int) bool { return p.Delete[i] < p.Delete[j] })

	for _, cell := range next.Cells() {
		class := next.At(cell)
		seat, ok := existing[cell]
		switch {
		case !ok:
			p.Create = append(p.Create, Placement{Cell: cell, Class: class})
		case seat.Class != class:
			p.Update = append(p.Update, Placement{ID: seat.ID, Cell: cell, Class: class})
		}
	}
	return p
}

// RowLabel converts a 0-based row index to A, B, ..., Z, AA, AB, ...
func RowLabel(i int) string {
	if i < 0 {
		return ""
	}
	var res []rune
	for {
		res = append(res, rune('A'+i%26))
		i = i/26 - 1
		if i < 0 {
			break
		}
	}
	for j, k := 0, len(res)-1; j < k; j, k = j+1, k-1 {
		res[j], res[k] = res[k], res[j]
	}
	return string(res)
}

// DisplayName is the row label followed by the 1-based column number.
func DisplayName(row, col int) string {
	return RowLabel(row) + strconv.Itoa(col+1)
}
