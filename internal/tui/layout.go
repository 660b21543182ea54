package tui

import "github.com/charmbracelet/lipgloss"

// column stacks rendered blocks and remembers the row each one starts on,
// so widgets can be told where they sit for mouse hit-testing.
type column struct {
	parts []string
	rows  int
}

// add appends a block and returns the row it starts on.
func (c *column) add(block string) int {
	top := c.rows
	c.parts = append(c.parts, block)
	c.rows += lipgloss.Height(block)
	return top
}

func (c column) String() string {
	return lipgloss.JoinVertical(lipgloss.Left, c.parts...)
}

// point is a screen position.
type point struct {
	x, y int
}

func (p point) add(dx, dy int) point {
	return point{x: p.x + dx, y: p.y + dy}
}
