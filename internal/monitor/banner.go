package monitor

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
)

var bannerLines = []string{
	" ____             _   ______",
	"/ ___|  ___  _   _| | |  ___| __ __ _ _ __ ___   ___",
	"\\___ \\ / _ \\| | | | | | |_ | '__/ _` | '_ ` _ \\ / _ \\",
	" ___) | (_) | |_| | | |  _|| | | (_| | | | | | |  __/",
	"|____/ \\___/ \\__,_|_| |_|  |_|  \\__,_|_| |_| |_|\\___|",
}

// PrintBanner writes the startup banner to w, horizontally centered for
// the current terminal width. Used by the headless (-no-console) path,
// where the operator console never takes over the terminal to show it.
func PrintBanner(w io.Writer) {
	width := termWidth()

	maxW := 0
	for _, l := range bannerLines {
		if len(l) > maxW {
			maxW = len(l)
		}
	}
	pad := 0
	if width > maxW {
		pad = (width - maxW) / 2
	}

	for _, l := range bannerLines {
		fmt.Fprintln(w, strings.Repeat(" ", pad)+brandStyle.Render(l))
	}
	fmt.Fprintln(w)
}

func termWidth() int {
	if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
		return w
	}
	return 80
}
