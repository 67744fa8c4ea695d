package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"wishlist/internal/client"
	"wishlist/internal/linkmeta"
	"wishlist/internal/mirror"
	"wishlist/internal/model"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	filterFlag string
	linkFlag   string
	nameFlag   string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the items on the wishlist",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := model.ParseFilter(filterFlag)
		if err != nil {
			return err
		}
		m, err := loadMirror(cmd.Context())
		if err != nil {
			return err
		}
		printItems(cmd.OutOrStdout(), m.Items(f))
		return nil
	},
}

var addCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add an item; without a name the title of --link is used",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d := model.Draft{Link: linkFlag}
		if len(args) == 1 {
			d.Name = args[0]
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
		defer cancel()

		if strings.TrimSpace(d.Name) == "" {
			if d.Link == "" {
				return errors.New("a name or --link is required")
			}
			title, err := linkmeta.NewResolver(cfg.RequestTimeout, logger).Title(ctx, d.Link)
			if err != nil {
				return fmt.Errorf("no name given and the page title is unavailable: %w", err)
			}
			d.Name = title
		}

		m := newMirror()
		it, err := m.Create(ctx, d)
		if err != nil {
			return bannerError(m, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added #%d %s\n", it.ID, it.Name)
		return nil
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change the name or link of an item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		var p model.Patch
		if cmd.Flags().Changed("name") {
			p = p.Merge(model.SetName(nameFlag))
		}
		if cmd.Flags().Changed("link") {
			p = p.Merge(model.SetLink(linkFlag))
		}
		if p.Empty() {
			return errors.New("nothing to change: pass --name and/or --link")
		}

		m, err := loadMirror(cmd.Context())
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
		defer cancel()
		it, err := m.Update(ctx, id, p)
		if err != nil {
			return itemError(m, id, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated #%d %s\n", it.ID, it.Name)
		return nil
	},
}

var toggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Flip the purchased flag of an item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		m, err := loadMirror(cmd.Context())
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
		defer cancel()
		it, err := m.Toggle(ctx, id)
		if err != nil {
			return itemError(m, id, err)
		}
		state := "to buy"
		if it.Purchased {
			state = "purchased"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "#%d %s is now %s\n", it.ID, it.Name, state)
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Remove an item",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		m, err := loadMirror(cmd.Context())
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
		defer cancel()
		if err := m.Delete(ctx, id); err != nil {
			return itemError(m, id, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed #%d\n", id)
		return nil
	},
}

func init() {
	listCmd.Flags().StringVarP(&filterFlag, "filter", "f", "all", "Which items to show (all, purchased, unpurchased)")
	addCmd.Flags().StringVarP(&linkFlag, "link", "l", "", "Where to buy the item")
	editCmd.Flags().StringVarP(&nameFlag, "name", "n", "", "New name")
	editCmd.Flags().StringVarP(&linkFlag, "link", "l", "", "New link; empty clears it")
}

// newMirror builds a mirror over the HTTP client. One-shot commands only
// surface warnings; the outcome is printed instead.
func newMirror() *mirror.Mirror {
	return mirror.New(
		client.New(cfg.ServerURL, client.WithTimeout(cfg.RequestTimeout)),
		mirror.WithLogger(logger.WithOptions(zap.IncreaseLevel(zap.WarnLevel))),
		mirror.WithErrorTTL(cfg.ErrorTTL),
	)
}

func loadMirror(ctx context.Context) (*mirror.Mirror, error) {
	m := newMirror()
	ctx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()
	if err := m.Load(ctx); err != nil {
		return nil, bannerError(m, err)
	}
	return m, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid item id %q", s)
	}
	return id, nil
}

// bannerError prefixes err with the message the mirror put in its banner.
func bannerError(m *mirror.Mirror, err error) error {
	if msg := m.Error(); msg != "" {
		return fmt.Errorf("%s (%w)", msg, err)
	}
	return err
}

func itemError(m *mirror.Mirror, id int64, err error) error {
	if errors.Is(err, mirror.ErrUnknownItem) {
		return fmt.Errorf("item #%d not found", id)
	}
	return bannerError(m, err)
}

func printItems(w io.Writer, items []model.Item) {
	if len(items) == 0 {
		fmt.Fprintln(w, "Your wishlist is empty.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, it := range items {
		box := "[ ]"
		if it.Purchased {
			box = "[x]"
		}
		fmt.Fprintf(tw, "%s\t#%d\t%s\t%s\n", box, it.ID, it.Name, it.Link)
	}
	_ = tw.Flush()
}
