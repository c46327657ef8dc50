package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// RoomInfo is the box shown to the creator while waiting for a peer.
type RoomInfo struct {
	Code string
	Link string
}

func (r RoomInfo) View() string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(green).
		Padding(1, 2)

	content := fmt.Sprintf("%s Room Created!\n\n%s Code:  %s\n%s Link:  %s\n\n%s",
		IconSuccess,
		IconCopy, selfStyle.Render(r.Code),
		IconWeb, MutedStyle.Render(r.Link),
		MutedStyle.Render("Share the code; the peer runs: gofast join "+r.Code),
	)

	return boxStyle.Render(content)
}

func RenderRoomInfo(code, link string) {
	fmt.Fprintln(Out, RoomInfo{Code: code, Link: link}.View())
}
