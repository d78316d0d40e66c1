// Program snapfs-catalog inspects and maintains the CATALOG manifest of a
// directory of stores: which stores exist, which depend on which, and
// whether that dependency graph is well-formed.
package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/snapfs/snapfs/internal/catalog"
	"github.com/snapfs/snapfs/internal/env"
)

func main() {
	var dir string

	root := &cobra.Command{
		Use:   "snapfs-catalog",
		Short: "Inspect and maintain a directory's store catalog",
	}
	root.PersistentFlags().StringVar(&dir, "dir", env.Root, "directory containing the store files")

	root.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every store found in the directory and its direct dependency",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := catalog.Scan(dir)
			if err != nil {
				return err
			}
			for _, e := range c.Entries {
				if e.Dep == "" {
					fmt.Println(e.Base)
				} else {
					fmt.Printf("%s -> %s\n", e.Base, e.Dep)
				}
			}
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check the dependency graph for missing links and cycles",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := catalog.Scan(dir)
			if err != nil {
				return err
			}
			return c.Validate()
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "write",
		Short: "Validate and write the CATALOG manifest file",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := catalog.Scan(dir)
			if err != nil {
				return err
			}
			return catalog.WriteManifest(dir, c)
		},
	})

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}
