// Package ui holds the pterm helpers used for command output
package ui

import (
	"fmt"
	"io"

	"github.com/pterm/pterm"
)

// PrintTable renders data as a boxed table whose first row is the header.
func PrintTable(data [][]string, writer io.Writer) error {
	table := pterm.DefaultTable
	table.Boxed = true

	str, err := table.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	_, err = fmt.Fprintln(writer, str)

	return err
}

// PrintPairs renders label/value rows without a header.
func PrintPairs(pairs [][]string, writer io.Writer) error {
	str, err := pterm.DefaultTable.WithData(pairs).Srender()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	_, err = fmt.Fprintln(writer, str)

	return err
}
