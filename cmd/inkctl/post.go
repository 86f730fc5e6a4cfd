package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/adrg/frontmatter"
	"github.com/goliatone/go-slug"
	"github.com/spf13/cobra"

	"inkwell/api/internal/client"
)

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Manage posts",
}

var postListCmd = &cobra.Command{
	Use:   "list",
	Short: "List published posts",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := apiClient(cmd)
		if err != nil {
			return err
		}
		posts, err := c.ListPosts(cmd.Context())
		if err != nil {
			return err
		}
		return printPosts(cmd.OutOrStdout(), posts)
	},
}

var postGetCmd = &cobra.Command{
	Use:   "get <slug>",
	Short: "Show a post with its content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := apiClient(cmd)
		if err != nil {
			return err
		}
		detail, err := c.GetPost(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "    ")
		return encoder.Encode(detail)
	},
}

var postCreateCmd = &cobra.Command{
	Use:   "create [slug title category content]",
	Short: "Create a post",
	Long: `Create a post from positional arguments or from a Markdown file.

Examples:
  # Inline
  inkctl post create hello "Hello" tech "# Hello"

  # From a file with front matter (slug, title, category).
  # Without a slug, one is derived from the title.
  inkctl post create --file hello.md`,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")

		var post client.NewPost
		switch {
		case file != "":
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}
			post, err = parsePostFile(data)
			if err != nil {
				return err
			}
		case len(args) == 4:
			post = client.NewPost{Slug: args[0], Title: args[1], Category: args[2], Content: args[3]}
		default:
			return fmt.Errorf("expected slug, title, category and content, or --file")
		}

		c, err := apiClient(cmd)
		if err != nil {
			return err
		}
		msg, err := c.CreatePost(cmd.Context(), post)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	},
}

var postUpdateCmd = &cobra.Command{
	Use:   "update <slug>",
	Short: "Update a post's title, category or content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		update, err := updateFromFlags(cmd)
		if err != nil {
			return err
		}
		c, err := apiClient(cmd)
		if err != nil {
			return err
		}
		msg, err := c.UpdatePost(cmd.Context(), args[0], update)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	},
}

var postDeleteCmd = &cobra.Command{
	Use:   "delete <slug>",
	Short: "Delete a post and its content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := apiClient(cmd)
		if err != nil {
			return err
		}
		msg, err := c.DeletePost(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	},
}

func init() {
	postCmd.AddCommand(postListCmd)
	postCmd.AddCommand(postGetCmd)
	postCmd.AddCommand(postCreateCmd)
	postCmd.AddCommand(postUpdateCmd)
	postCmd.AddCommand(postDeleteCmd)

	postCreateCmd.Flags().StringP("file", "f", "", "Markdown file with front matter")

	postUpdateCmd.Flags().String("title", "", "New title")
	postUpdateCmd.Flags().String("category", "", "New category")
	postUpdateCmd.Flags().String("content", "", "New content")
	postUpdateCmd.Flags().String("content-file", "", "Read the new content from a file")
}

// postFrontMatter is the header of a post file passed to create --file.
type postFrontMatter struct {
	Slug     string `yaml:"slug"`
	Title    string `yaml:"title"`
	Category string `yaml:"category"`
}

func parsePostFile(data []byte) (client.NewPost, error) {
	var meta postFrontMatter
	body, err := frontmatter.Parse(bytes.NewReader(data), &meta)
	if err != nil {
		return client.NewPost{}, fmt.Errorf("failed to parse front matter: %w", err)
	}
	if meta.Slug == "" {
		derived, err := slug.Normalize(meta.Title)
		if err != nil {
			return client.NewPost{}, fmt.Errorf("front matter needs a slug or a title to derive one from")
		}
		meta.Slug = derived
	}
	return client.NewPost{
		Slug:     meta.Slug,
		Title:    meta.Title,
		Category: meta.Category,
		Content:  string(bytes.TrimLeft(body, "\r\n")),
	}, nil
}

// updateFromFlags sends only the flags the user actually set, so an explicit
// empty value still clears the field.
func updateFromFlags(cmd *cobra.Command) (client.PostUpdate, error) {
	var update client.PostUpdate
	flags := cmd.Flags()
	if flags.Changed("title") {
		value, _ := flags.GetString("title")
		update.Title = &value
	}
	if flags.Changed("category") {
		value, _ := flags.GetString("category")
		update.Category = &value
	}
	if flags.Changed("content") && flags.Changed("content-file") {
		return update, fmt.Errorf("--content and --content-file are mutually exclusive")
	}
	if flags.Changed("content") {
		value, _ := flags.GetString("content")
		update.Content = &value
	}
	if flags.Changed("content-file") {
		path, _ := flags.GetString("content-file")
		data, err := os.ReadFile(path)
		if err != nil {
			return update, fmt.Errorf("failed to read content file: %w", err)
		}
		value := string(data)
		update.Content = &value
	}
	return update, nil
}

func printPosts(w io.Writer, posts []client.PostWithContent) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SLUG\tTITLE\tCATEGORY\tPUBLISHED")
	for _, post := range posts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", post.Slug, post.Title, post.Category, strconv.FormatBool(post.Published))
	}
	return tw.Flush()
}
