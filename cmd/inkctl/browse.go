package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"inkwell/api/internal/logging"
	"inkwell/api/internal/viewer"
)

var browseCmd = &cobra.Command{
	Use:   "browse [category|slug]",
	Short: "Browse the published blog as a reader sees it",
	Long: `Browse loads the public sitemap once and renders a category listing
or a single post, like opening the blog at #fragment.

Examples:
  inkctl browse
  inkctl browse tech --page 2
  inkctl browse hello-world`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")
		session, err := readerSession(cmd)
		if err != nil {
			return err
		}

		fragment := ""
		if len(args) == 1 {
			fragment = args[0]
		}
		ctrl := session.Controller
		view := ctrl.Start(cmd.Context(), fragment)
		for i := 1; i < page && view.Page.HasNext; i++ {
			view = ctrl.NextPage(cmd.Context())
		}
		printView(cmd.OutOrStdout(), ctrl.Menu(), view)
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search published posts by title and content",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, _ := cmd.Flags().GetString("category")
		page, _ := cmd.Flags().GetInt("page")
		session, err := readerSession(cmd)
		if err != nil {
			return err
		}

		ctrl := session.Controller
		view := ctrl.Start(cmd.Context(), category)
		if view.Kind != viewer.ViewMessage || view.Message != viewer.MsgNoPosts {
			view = ctrl.Search(cmd.Context(), strings.Join(args, " "))
			for i := 1; i < page && view.Page.HasNext; i++ {
				view = ctrl.NextPage(cmd.Context())
			}
		}
		printView(cmd.OutOrStdout(), ctrl.Menu(), view)
		return nil
	},
}

func init() {
	browseCmd.Flags().Int("page", 1, "Page of the listing to show")
	searchCmd.Flags().String("category", "all", "Restrict the search to a category")
	searchCmd.Flags().Int("page", 1, "Page of the results to show")
}

func readerSession(cmd *cobra.Command) (*viewer.Session, error) {
	profile, err := resolveProfile(cmd)
	if err != nil {
		return nil, err
	}
	logging.Init(logging.Config{Level: "warn", Output: cmd.ErrOrStderr()})
	fetcher, err := viewer.NewHTTPFetcher(profile.Public, nil)
	if err != nil {
		return nil, err
	}
	return viewer.NewSession(fetcher, logging.WithComponent("viewer")), nil
}

func printView(w io.Writer, menu []viewer.MenuItem, view viewer.View) {
	labels := []string{"All"}
	for _, item := range menu {
		labels = append(labels, item.Label)
	}
	fmt.Fprintf(w, "[ %s ]\n\n", strings.Join(labels, " | "))

	switch view.Kind {
	case viewer.ViewMessage:
		fmt.Fprintln(w, view.Message)
	case viewer.ViewPost:
		fmt.Fprintf(w, "%s (%s)\n\n%s\n", view.Post.Post.Title, view.Post.Post.Category, view.Post.HTML)
		if len(view.Post.Related) > 0 {
			fmt.Fprintln(w, "Related Posts")
			for _, related := range view.Post.Related {
				fmt.Fprintf(w, "  - %s (#%s)\n", related.Title, related.Slug)
			}
		}
	case viewer.ViewList:
		fmt.Fprintf(w, "Posts (%d)\n", view.Total)
		for _, item := range view.Items {
			fmt.Fprintf(w, "- %s (#%s)\n", item.Post.Title, item.Post.Slug)
			if item.Snippet != "" {
				fmt.Fprintf(w, "    %s\n", item.Snippet)
			}
		}
		if view.Page.TotalPages > 1 {
			prev, next := " ", " "
			if view.Page.HasPrev {
				prev = "<"
			}
			if view.Page.HasNext {
				next = ">"
			}
			fmt.Fprintf(w, "\n%s %d/%d %s\n", prev, view.Page.Number, view.Page.TotalPages, next)
		}
	}
}
