package cli

import (
	"fmt"

	"carbridge/internal/auth"

	"github.com/spf13/cobra"
)

var pairSave bool

var pairCmd = &cobra.Command{
	Use:   "pair",
	Short: "Generate a head-unit pairing token",
	Long: `Generates a random pairing token and its bcrypt hash. Enter the token on
the head unit and store the hash as auth.token_hash, or pass --save to write it
to the config file and enable pairing.`,
	Args: cobra.NoArgs,
	RunE: runPair,
}

func init() {
	pairCmd.Flags().BoolVar(&pairSave, "save", false, "store the hash in the config file")
	rootCmd.AddCommand(pairCmd)
}

func runPair(cmd *cobra.Command, args []string) error {
	token, err := auth.GenerateToken()
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}
	hash, err := auth.HashToken(token)
	if err != nil {
		return fmt.Errorf("failed to hash token: %w", err)
	}

	if pairSave {
		cfg.Auth.Enabled = true
		cfg.Auth.TokenHash = hash
		if err := cfg.SaveToFile(cfgFile); err != nil {
			return err
		}
	}

	if jsonOut {
		return printJSON(map[string]any{"token": token, "hash": hash, "saved": pairSave})
	}
	fmt.Printf("Pairing token: %s\n", token)
	fmt.Printf("Token hash:    %s\n", hash)
	if pairSave {
		fmt.Printf("Saved to %s\n", cfgFile)
	}
	return nil
}
