package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/threewords/journal/internal/suggest"
)

var suggestTimeout time.Duration

var suggestCmd = &cobra.Command{
	Use:   "suggest <experience>",
	Short: "Suggest three words for an experience",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), suggestTimeout)
		defer cancel()

		endpoint := strings.TrimSuffix(viper.GetString("server"), "/") + suggest.DefaultPath
		client := suggest.New(endpoint, nil)

		words, err := client.Suggest(ctx, strings.Join(args, " "))
		if err != nil {
			return fmt.Errorf("%s", suggest.Guidance(err))
		}

		bold := color.New(color.FgGreen, color.Bold).SprintFunc()
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s\n", bold(words[0]), bold(words[1]), bold(words[2]))
		return nil
	},
}

func init() {
	suggestCmd.Flags().DurationVar(&suggestTimeout, "timeout", 30*time.Second, "how long to wait for the server")
}
