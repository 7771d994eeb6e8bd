package cmd

import (
	seldon "github.com/AminuIsrael/seldon-core"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Long:  `Print the version with a short commit hash.`,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("Seldon Core %s (%s)\n", seldon.VERSION, seldon.COMMIT)
		},
	}
}
