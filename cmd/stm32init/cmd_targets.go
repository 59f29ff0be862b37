// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/stm32init/cmd/stm32init/internal/project"
)

func newTargetsCmd(a *app) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "targets",
		Short: "List MCU families and their OpenOCD target configs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newPrinter(a.stdout)
			families := project.SupportedFamilies()
			if jsonOutput {
				return out.JSON(families)
			}

			out.Title(fmt.Sprintf("%-10s %s", "FAMILY", "OPENOCD TARGET"))
			for _, ft := range families {
				fmt.Fprintf(a.stdout, "%-10s %s\n", ft.Family, ft.Target)
			}
			fmt.Fprintf(a.stdout, "\nOther families use %s.\n", project.DefaultTarget)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the table as JSON")
	return cmd
}
