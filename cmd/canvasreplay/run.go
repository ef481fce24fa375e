package main

import (
	"encoding/json"
	"fmt"
	"image/png"
	"log"
	"os"

	"github.com/spf13/cobra"

	"image-workspace/internal/replay"
)

func newRunCommand() *cobra.Command {
	var output string
	var jsonOut string
	var withData bool

	cmd := &cobra.Command{
		Use:   "run <script>",
		Short: "Replay a script and write the final frame",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(args[0], output, jsonOut, withData)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "frame.png", "PNG file for the rendered frame")
	cmd.Flags().StringVar(&jsonOut, "json", "", "Write the final image state as JSON (- for stdout)")
	cmd.Flags().BoolVar(&withData, "with-data", false, "Include image and mask payloads in the JSON dump")

	return cmd
}

func runReplay(path, output, jsonOut string, withData bool) error {
	script, err := replay.Load(path)
	if err != nil {
		return err
	}
	sess, err := replay.Run(script)
	if err != nil {
		return err
	}

	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", output, err)
		}
		if err := png.Encode(f, sess.Snapshot()); err != nil {
			f.Close()
			return fmt.Errorf("failed to encode frame: %w", err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		log.Printf("Wrote frame to %s", output)
	}

	if jsonOut == "" {
		return nil
	}
	data, err := json.MarshalIndent(sess.Dump(withData), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	if jsonOut == "-" {
		_, err = os.Stdout.Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(jsonOut, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", jsonOut, err)
	}
	log.Printf("Wrote state to %s", jsonOut)
	return nil
}

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <script>",
		Short: "Check a script without replaying it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := replay.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s: ok (%d images, %d steps)\n", args[0], len(script.Images), len(script.Steps))
			return nil
		},
	}
}
