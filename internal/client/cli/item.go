package cli

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/pastekeeper/internal/client/models"
)

// printFileView renders a single materialized file with a small header.
func printFileView(f models.FileView) {
	header := f.Name
	if f.Language != "" {
		header += " [" + f.Language + "]"
	}
	if f.IsMain {
		header += " (main)"
	}
	fmt.Println("--- " + header + " " + strings.Repeat("-", max(0, 60-len(header))))
	fmt.Println(f.Body)
}
