package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/axellelanca/linkshorter/cmd"
	"github.com/axellelanca/linkshorter/internal/services"
	"github.com/axellelanca/linkshorter/internal/ttl"
)

var (
	tokenFlag        string
	tokenSecondsFlag int64
)

// AddTokenCmd allows a token to create mappings over HTTP.
var AddTokenCmd = &cobra.Command{
	Use:   "add-token",
	Short: "Allow a token, optionally for a limited number of seconds",
	Long: `Adds TOKEN to the allowed tokens, replacing its expiry if it already exists.

Example:
  linkshorter add-token -t s3cret -s 86400`,
	RunE: func(c *cobra.Command, args []string) error {
		var seconds *int64
		if c.Flags().Changed("seconds") {
			seconds = &tokenSecondsFlag
		}
		return withStore(func(svc *serviceSet) error {
			return runAddToken(c.Context(), c.OutOrStdout(), svc.tokens, tokenFlag, seconds)
		})
	},
}

// RemoveTokenCmd revokes a token.
var RemoveTokenCmd = &cobra.Command{
	Use:   "remove-token",
	Short: "Revoke a token",
	RunE: func(c *cobra.Command, args []string) error {
		return withStore(func(svc *serviceSet) error {
			return runRemoveToken(c.Context(), c.OutOrStdout(), svc.tokens, tokenFlag)
		})
	},
}

// ListTokenCmd prints every token with its expiry.
var ListTokenCmd = &cobra.Command{
	Use:   "list-token",
	Short: "List tokens and their expiry",
	Args:  cobra.NoArgs,
	RunE: func(c *cobra.Command, args []string) error {
		return withStore(func(svc *serviceSet) error {
			return runListTokens(c.Context(), c.OutOrStdout(), svc.tokens)
		})
	},
}

func init() {
	AddTokenCmd.Flags().StringVarP(&tokenFlag, "token", "t", "", "the token to allow")
	AddTokenCmd.Flags().Int64VarP(&tokenSecondsFlag, "seconds", "s", 0, "lifetime in seconds (default: never expires)")
	_ = AddTokenCmd.MarkFlagRequired("token")

	RemoveTokenCmd.Flags().StringVarP(&tokenFlag, "token", "t", "", "the token to revoke")
	_ = RemoveTokenCmd.MarkFlagRequired("token")

	cmd.RootCmd.AddCommand(AddTokenCmd, RemoveTokenCmd, ListTokenCmd)
}

func runAddToken(ctx context.Context, out io.Writer, tokens *services.TokenService, token string, seconds *int64) error {
	if token == "" {
		return fmt.Errorf("--token must not be empty")
	}
	if err := tokens.AddToken(ctx, token, seconds); err != nil {
		return err
	}
	fmt.Fprintln(out, "Token added")
	return nil
}

func runRemoveToken(ctx context.Context, out io.Writer, tokens *services.TokenService, token string) error {
	existed, err := tokens.RemoveToken(ctx, token)
	if err != nil {
		return err
	}
	if existed {
		fmt.Fprintln(out, "Token removed")
	} else {
		fmt.Fprintln(out, "No such token")
	}
	return nil
}

func runListTokens(ctx context.Context, out io.Writer, tokens *services.TokenService) error {
	list, err := tokens.ListTokens(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Token\tTTL")
	for _, t := range list {
		fmt.Fprintf(w, "%s\t%s\n", t.Token, formatExpiry(t.TTL))
	}
	return w.Flush()
}

// formatExpiry renders an expiry for humans: "-" when unset, a UTC timestamp
// otherwise, suffixed with " (expired)" once it has passed.
func formatExpiry(e ttl.Expiry) string {
	if !e.Valid {
		return "-"
	}
	t, ok := e.Time()
	if !ok {
		return "invalid (expired)"
	}
	s := t.Format("2006-01-02 15:04:05.000000") + " UTC"
	if e.Expired() {
		s += " (expired)"
	}
	return s
}
