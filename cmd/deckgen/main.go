// Команда deckgen генерирует колоду без HTTP-сервера: читает заметки и/или
// документ, проводит один цикл генерации и сохраняет JSON и превью слайдов.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "deckgen",
	Short: "Generate slide decks from notes and documents",
	Long: `deckgen runs the deck generation pipeline in-process: it asks the
structure model for slides, renders visuals one by one through the image
server and writes the result as portable JSON and optional PNG previews.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging to stderr")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "✗ %v\n", err)
		os.Exit(1)
	}
}
