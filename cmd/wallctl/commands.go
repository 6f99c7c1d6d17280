package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"pantrywall/internal/pantry"
	"pantrywall/internal/session"
	"pantrywall/internal/share"
	"pantrywall/internal/wall"
)

func newConfigCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change which Pantry basket the wall uses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openClient(opts)
			if err != nil {
				return err
			}
			defer c.Close()
			ref, err := c.bucket(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pantry: %s\nbasket: %s\n", ref.PantryID, ref.Basket)
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <pantry-id> <basket>",
		Short: "Point the wall at a pantry basket",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openClient(opts)
			if err != nil {
				return err
			}
			defer c.Close()
			ref, board, err := c.view.ApplySettings(cmd.Context(), nil, pantry.Ref{PantryID: args[0], Basket: args[1]})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "using %s\n", ref)
			printBoard(cmd.OutOrStdout(), board)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "from-url <link>",
		Short: "Take the pantry basket from a shared wall link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := session.ParsePageURL(args[0])
			if err != nil {
				return err
			}
			if pid, key := session.ParseFragment(page.Fragment()); pid == "" || key == "" {
				return errors.New("link has no #pid=...&key=... fragment")
			}
			c, err := openClient(opts)
			if err != nil {
				return err
			}
			defer c.Close()
			ref, err := c.view.Bucket(cmd.Context(), page)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "using %s\n", ref)
			return nil
		},
	})
	return cmd
}

func newShowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print every note on the wall",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openClient(opts)
			if err != nil {
				return err
			}
			defer c.Close()
			ref, err := c.bucket(cmd.Context())
			if err != nil {
				return err
			}
			board, err := c.view.Refresh(cmd.Context(), ref)
			if err != nil {
				return err
			}
			printBoard(cmd.OutOrStdout(), board)
			return nil
		},
	}
}

func newPostCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "post <text>",
		Short: "Replace your note on the wall",
		Long:  "Replace your note on the wall. All arguments are joined with spaces; an empty string clears the note.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openClient(opts)
			if err != nil {
				return err
			}
			defer c.Close()
			ref, err := c.bucket(cmd.Context())
			if err != nil {
				return err
			}
			// Each run starts from the basket as it is now, not from a map
			// cached by an earlier run.
			if _, err := c.view.Refresh(cmd.Context(), ref); err != nil {
				return err
			}
			board, err := c.view.SaveNote(cmd.Context(), ref, strings.Join(args, " "))
			if err != nil {
				return err
			}
			printBoard(cmd.OutOrStdout(), board)
			return nil
		},
	}
}

func newNameCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "name <name>",
		Short: "Claim a display name on this pantry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openClient(opts)
			if err != nil {
				return err
			}
			defer c.Close()
			ref, err := c.bucket(cmd.Context())
			if err != nil {
				return err
			}
			label, err := c.view.ClaimName(cmd.Context(), ref, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "you are %s\n", label)
			return nil
		},
	}
}

func newShareCmd(opts *options) *cobra.Command {
	var qrPath string
	var qrSize int
	cmd := &cobra.Command{
		Use:   "share <page-url>",
		Short: "Print the link that opens the wall page on this basket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := session.ParsePageURL(args[0])
			if err != nil {
				return err
			}
			c, err := openClient(opts)
			if err != nil {
				return err
			}
			defer c.Close()
			ref, err := c.bucket(cmd.Context())
			if err != nil {
				return err
			}
			link, err := share.URL(page.URL(), ref)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), link)
			if qrPath == "" {
				return nil
			}
			png, err := share.QRPNG(link, qrSize)
			if err != nil {
				return err
			}
			if err := os.WriteFile(qrPath, png, 0o644); err != nil {
				return fmt.Errorf("write qr: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "qr code written to %s\n", qrPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&qrPath, "qr", "", "also write the link as a PNG QR code to this file")
	cmd.Flags().IntVar(&qrSize, "qr-size", share.DefaultQRSize, "QR code edge in pixels")
	return cmd
}

func printBoard(w io.Writer, board wall.Board) {
	if board.Degraded {
		fmt.Fprintln(w, "(names unavailable, showing identities)")
	}
	if len(board.Entries) == 0 {
		fmt.Fprintln(w, "the wall is empty")
	}
	for _, entry := range board.Entries {
		marker := " "
		if entry.Self {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %s: %s\n", marker, entry.Label, entry.Text)
	}
	fmt.Fprintf(w, "posting as %s\n", board.Me.Display)
}
