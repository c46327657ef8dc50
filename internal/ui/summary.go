package ui

import (
	"fmt"
	"time"

	prettytable "github.com/jedib0t/go-pretty/v6/table"

	"github.com/gofast/gofast/internal/utils"
)

// SessionSummary is printed when a chat session ends.
type SessionSummary struct {
	Status        string
	Code          string
	Duration      time.Duration
	MessagesSent  int
	MessagesRecv  int
	FilesSent     int
	FilesRecv     int
	BytesSent     int64
	BytesReceived int64
}

func SessionSummaryView(s SessionSummary) string {
	t := prettytable.NewWriter()
	t.SetTitle("📊 Session Summary")
	t.SetStyle(prettytable.StyleRounded)
	t.AppendHeader(prettytable.Row{"Metric", "Sent", "Received"})
	t.AppendRows([]prettytable.Row{
		{"Messages", s.MessagesSent, s.MessagesRecv},
		{"Files", s.FilesSent, s.FilesRecv},
		{"Bytes", utils.FormatSize(s.BytesSent), utils.FormatSize(s.BytesReceived)},
	})
	t.AppendSeparator()
	t.AppendRow(prettytable.Row{"Room", s.Code, ""})
	t.AppendRow(prettytable.Row{"Duration", utils.FormatTimeDuration(s.Duration), ""})
	t.AppendFooter(prettytable.Row{"Status", s.Status, ""})
	return t.Render()
}

func RenderSessionSummary(s SessionSummary) {
	fmt.Fprintln(Out, SessionSummaryView(s))
}
