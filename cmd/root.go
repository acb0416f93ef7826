// cmd/root.go
//
// Root command for the wordslide binary.
//   - Loads configuration (.env + environment) before any subcommand.
//   - Configures the global zerolog logger.
//   - Initialises the shared word bank (--words or WORDS_BANK_FILE).

package cmd

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/wordslide/internal/config"
	"github.com/robalobadob/wordslide/internal/words"
)

var (
	cfg       config.Config
	wordsFile string
)

var rootCmd = &cobra.Command{
	Use:   "wordslide",
	Short: "Sliding-tile word puzzle engine and server",
	Long: `wordslide is a sliding-tile word puzzle: slide letters into the empty
slot until the target words read across their rows or down their columns.

Examples:
  wordslide serve
  wordslide gen --level 3 -n 2
  wordslide play --mode continuous`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(); err != nil {
			return err
		}
		cfg.SetupLogging(os.Stderr)
		if wordsFile == "" {
			wordsFile = cfg.WordsFile
		}
		if err := words.Init(wordsFile); err != nil {
			log.Error().Err(err).Msg("failed to load word bank")
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&wordsFile, "words", "", "Word bank file (one word per line); defaults to WORDS_BANK_FILE or the built-in bank")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
