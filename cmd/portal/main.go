// Command portal runs the Condaura access review web portal.
//
// @title        Condaura Portal API
// @version      1.0
// @description  Session API of the Condaura access review portal.
// @BasePath     /
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "portal",
	Short:        "Condaura access review portal",
	Long:         "Portal serves the Condaura access review UI. It keeps one sign-in session per browser and calls the Condaura REST backend on the user's behalf.",
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
