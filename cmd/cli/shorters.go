package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/axellelanca/linkshorter/cmd"
	customerrors "github.com/axellelanca/linkshorter/internal/errors"
	"github.com/axellelanca/linkshorter/internal/services"
)

var (
	pathFlag           string
	urlFlag            string
	shorterSecondsFlag int64
)

// AddShorterCmd stores a mapping directly, without a token.
var AddShorterCmd = &cobra.Command{
	Use:   "add-shorter",
	Short: "Map a path to a URL",
	Long: `Stores PATH -> URL, replacing any existing mapping for PATH. The URL is
stored exactly as given.

Example:
  linkshorter add-shorter -p docs -u "https://example.com/docs?lang=go" -s 3600`,
	RunE: func(c *cobra.Command, args []string) error {
		var seconds *int64
		if c.Flags().Changed("seconds") {
			seconds = &shorterSecondsFlag
		}
		return withStore(func(svc *serviceSet) error {
			return runAddShorter(c.Context(), c.OutOrStdout(), svc.shorters, pathFlag, urlFlag, seconds)
		})
	},
}

// RemoveShorterCmd deletes a mapping.
var RemoveShorterCmd = &cobra.Command{
	Use:   "remove-shorter",
	Short: "Delete the mapping for a path",
	RunE: func(c *cobra.Command, args []string) error {
		return withStore(func(svc *serviceSet) error {
			return runRemoveShorter(c.Context(), c.OutOrStdout(), svc.shorters, pathFlag)
		})
	},
}

// GetShorterCmd prints a mapping, including expired ones.
var GetShorterCmd = &cobra.Command{
	Use:   "get-shorter",
	Short: "Show the mapping for a path",
	RunE: func(c *cobra.Command, args []string) error {
		return withStore(func(svc *serviceSet) error {
			return runGetShorter(c.Context(), c.OutOrStdout(), svc.shorters, pathFlag)
		})
	},
}

func init() {
	AddShorterCmd.Flags().StringVarP(&pathFlag, "path", "p", "", "the short path")
	AddShorterCmd.Flags().StringVarP(&urlFlag, "url", "u", "", "the target URL")
	AddShorterCmd.Flags().Int64VarP(&shorterSecondsFlag, "seconds", "s", 0, "lifetime in seconds (default: never expires)")
	_ = AddShorterCmd.MarkFlagRequired("path")
	_ = AddShorterCmd.MarkFlagRequired("url")

	RemoveShorterCmd.Flags().StringVarP(&pathFlag, "path", "p", "", "the short path")
	_ = RemoveShorterCmd.MarkFlagRequired("path")

	GetShorterCmd.Flags().StringVarP(&pathFlag, "path", "p", "", "the short path")
	_ = GetShorterCmd.MarkFlagRequired("path")

	cmd.RootCmd.AddCommand(AddShorterCmd, RemoveShorterCmd, GetShorterCmd)
}

func runAddShorter(ctx context.Context, out io.Writer, shorters *services.ShorterService, path, target string, seconds *int64) error {
	switch {
	case path == "":
		return fmt.Errorf("--path must not be empty")
	case target == "":
		return fmt.Errorf("--url must not be empty")
	}
	if err := services.ValidatePath(path); err != nil {
		return err
	}
	if err := shorters.InsertShorter(ctx, path, target, seconds, nil); err != nil {
		return err
	}
	fmt.Fprintf(out, "Shorter added: /%s -> %s\n", path, target)
	return nil
}

func runRemoveShorter(ctx context.Context, out io.Writer, shorters *services.ShorterService, path string) error {
	existed, err := shorters.RemoveShorter(ctx, path)
	if err != nil {
		return err
	}
	if existed {
		fmt.Fprintln(out, "Shorter removed")
	} else {
		fmt.Fprintln(out, "No such shorter")
	}
	return nil
}

func runGetShorter(ctx context.Context, out io.Writer, shorters *services.ShorterService, path string) error {
	s, err := shorters.LocateShorter(ctx, path)
	if errors.Is(err, customerrors.ErrNotFound) {
		fmt.Fprintln(out, "No such shorter")
		return nil
	}
	if err != nil {
		return err
	}

	state := "active"
	if s.TTL.Expired() {
		state = "expired"
	}
	fmt.Fprintf(out, "Path: %s\n", s.Path)
	fmt.Fprintf(out, "URL: %s\n", s.URL)
	fmt.Fprintf(out, "TTL: %s\n", formatExpiry(s.TTL))
	fmt.Fprintf(out, "State: %s\n", state)
	return nil
}
