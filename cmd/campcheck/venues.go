package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/brensch/campcheck/internal/catalog"
)

func init() {
	rootCmd.AddCommand(venuesCmd)
}

var venuesCmd = &cobra.Command{
	Use:   "venues",
	Short: "Lists every campground with its adapter and classes.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.close()

		t := newTable()
		t.AppendHeader(table.Row{"ID", "Name", "City", "Adapter", "Classes"})
		reg := a.mgr.Registry()
		for _, id := range reg.IDs() {
			p, _ := reg.Get(id)
			name, city := "", ""
			if cg, c, ok := catalog.CampgroundByID(id); ok {
				name, city = cg.Name, c
			}
			var classes []string
			for _, c := range p.Classes() {
				classes = append(classes, string(c))
			}
			t.AppendRow(table.Row{id, name, city, p.Name(), strings.Join(classes, ", ")})
		}
		t.AppendFooter(table.Row{"", "", "", "Total", fmt.Sprint(len(reg.IDs()))})
		t.Render()
		return nil
	},
}
