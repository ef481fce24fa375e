// Command canvasreplay replays scripted canvas sessions without a window and
// writes the resulting frame and image state.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"image-workspace/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "canvasreplay",
		Short: "Replay canvas interaction scripts headlessly",
		Long: `canvasreplay drives the image workspace canvas from a YAML script of
tool, pointer and wheel events, then renders the final frame and dumps the
image state.`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newValidateCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
