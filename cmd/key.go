package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/greenside/golfscout/internal/credstore"
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the Places API key",
}

var keySetCmd = &cobra.Command{
	Use:   "set [key]",
	Short: "Store the Places API key",
	Long:  "Saves the key into the credential file and the database settings table. Reads from stdin when no argument is given.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		var key string
		if len(args) == 1 {
			key = args[0]
		} else {
			fmt.Fprint(os.Stderr, "Places API key: ")
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil {
				return eris.Wrap(err, "read key from stdin")
			}
			key = strings.TrimSpace(line)
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := credstore.New(st).Save(ctx, key); err != nil {
			return err
		}
		fmt.Println("API key saved.")
		return nil
	},
}

var keyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether an API key is configured",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		key, err := credstore.New(st).PlacesKey(ctx)
		if err != nil {
			if errors.Is(err, credstore.ErrNoCredential) {
				fmt.Println("No API key configured.")
				return nil
			}
			return err
		}

		masked := "****"
		if len(key) > 4 {
			masked = key[:4] + strings.Repeat("*", len(key)-4)
		}
		fmt.Printf("API key configured: %s\n", masked)
		return nil
	},
}

func init() {
	keyCmd.AddCommand(keySetCmd)
	keyCmd.AddCommand(keyStatusCmd)
	rootCmd.AddCommand(keyCmd)
}
