package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/gofast/gofast/internal/utils"
)

// FileTableItem is one row of a file table.
type FileTableItem struct {
	Direction string
	Name      string
	Size      int64
	Type      string
	Path      string
}

// FileTableView renders the files exchanged during a session.
func FileTableView(items []FileTableItem) string {
	if len(items) == 0 {
		return MutedStyle.Render("No files exchanged")
	}

	rows := make([][]string, 0, len(items))
	for i, item := range items {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			item.Direction,
			utils.TruncateString(item.Name, 40),
			utils.FormatSize(item.Size),
			utils.TruncateString(item.Type, 24),
			utils.TruncateString(item.Path, 40),
		})
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(accent)).
		Headers("#", "", "Name", "Size", "Type", "Saved As").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return tableHeaderStyle
			case row%2 == 0:
				return tableRowStyle
			default:
				return tableRowAltStyle
			}
		})

	return tbl.Render()
}

func RenderFileTable(items []FileTableItem) {
	fmt.Fprintln(Out, FileTableView(items))
}
