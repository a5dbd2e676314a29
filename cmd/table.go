package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/TelioTortay/ATEMLogger/internal/session"
	"github.com/TelioTortay/ATEMLogger/internal/tracker"
)

// renderClipTable formats a take list as a rounded table.
func renderClipTable(clips []tracker.Clip) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Source", "Start", "End"})
	for i, c := range clips {
		tw.AppendRow(table.Row{fmt.Sprintf("%04d", i+1), c.Source, c.Start.String(), c.End.String()})
	}
	return tw.Render()
}

// printClipTable prints the session's final take list, or a note when no
// cuts were logged.
func printClipTable(sess *session.Session) {
	clips := sess.Clips()
	if len(clips) == 0 {
		fmt.Println("No cuts logged this session.")
		return
	}
	fmt.Println(renderClipTable(clips))
	if path := sess.OutputPath(); path != "" {
		fmt.Printf("EDL written to %s\n", path)
	}
}
