package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/appdir/internal/domain"
)

func newListCmd(s *session) *cobra.Command {
	var (
		q       domain.Query
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List apps, with optional filters",
		Long: `List the catalog. Filters combine: an app must match all of them.

Examples:
  appdirctl list
  appdirctl list --category "image generation" --sort likeCount
  appdirctl list --q chat --limit 5 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := s.svc.Query(cmd.Context(), q)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if jsonOut {
				return writeJSON(w, res)
			}
			if len(res.Items) == 0 {
				fmt.Fprintln(w, "No apps found.")
				return nil
			}
			for _, a := range res.Items {
				printAppLine(w, a)
			}
			fmt.Fprintf(w, "\n%d of %d app(s), page %d\n", len(res.Items), res.Total, res.Page)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&q.Category, "category", "", "Filter by category")
	f.StringVar(&q.Tag, "tag", "", "Filter by tag")
	f.StringVar(&q.Author, "author", "", "Filter by author name")
	f.StringVar(&q.Q, "q", "", "Search name, description and tags")
	f.StringVar(&q.Sort, "sort", "", "Sort field ("+strings.Join(domain.SortFields(), ", ")+")")
	f.StringVar(&q.Order, "order", "", "asc or desc")
	f.IntVar(&q.Page, "page", 0, "Page number, from 1")
	f.IntVar(&q.Limit, "limit", 0, "Page size")
	f.BoolVar(&jsonOut, "json", false, "Output as JSON")

	return cmd
}

func newGetCmd(s *session) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "get <url|id>",
		Short: "Show one app",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.svc.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), app)
			}
			printApp(cmd.OutOrStdout(), app)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

// appFlags are the editable fields shared by add and update.
type appFlags struct {
	url         string
	name        string
	description string
	category    string
	tags        []string
	author      string
	authorURL   string
	status      string
	top         bool
}

func (af *appFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&af.url, "url", "", "Direct URL of the hosted demo")
	f.StringVar(&af.name, "name", "", "Display name")
	f.StringVar(&af.description, "description", "", "Short description (defaults to the name)")
	f.StringVar(&af.category, "category", "", "One of: "+categoryList())
	f.StringSliceVar(&af.tags, "tags", nil, "Comma-separated tags")
	f.StringVar(&af.author, "author", "", "Author name (empty string clears it on update)")
	f.StringVar(&af.authorURL, "author-url", "", "Author homepage")
	f.StringVar(&af.status, "status", "", "active, maintenance or offline")
	f.BoolVar(&af.top, "top", false, "Pin the app to the top list")
}

// patch only carries the flags that were set on the command line.
func (af *appFlags) patch(cmd *cobra.Command) domain.Patch {
	changed := cmd.Flags().Changed
	var p domain.Patch
	if changed("url") {
		p.DirectURL = &af.url
	}
	if changed("name") {
		p.Name = &af.name
	}
	if changed("description") {
		p.Description = &af.description
	}
	if changed("category") {
		p.Category = &af.category
	}
	if changed("tags") {
		tags := af.tags
		if tags == nil {
			tags = []string{}
		}
		p.Tags = &tags
	}
	if changed("author") || changed("author-url") {
		p.Author = &domain.Author{Name: af.author, URL: af.authorURL}
	}
	if changed("status") {
		st := domain.Status(af.status)
		p.Status = &st
	}
	if changed("top") {
		p.IsTop = &af.top
	}
	return p
}

func newAddCmd(s *session) *cobra.Command {
	var af appFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an app",
		Long: `Add an app to the catalog. --url and --name are required.

Example:
  appdirctl add --url https://demo.example.com/chat --name "Chat demo" \
    --category "text generation" --tags chat,llm --author "Jane"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.svc.Add(cmd.Context(), af.patch(cmd))
			if err != nil {
				return describe(err)
			}
			ok(cmd.OutOrStdout(), "added %s (%s)", app.Name, app.ID)
			return nil
		},
	}

	af.register(cmd)
	return cmd
}

func newUpdateCmd(s *session) *cobra.Command {
	var af appFlags

	cmd := &cobra.Command{
		Use:   "update <url|id>",
		Short: "Update the fields given as flags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.svc.Update(cmd.Context(), args[0], af.patch(cmd))
			if err != nil {
				return describe(err)
			}
			ok(cmd.OutOrStdout(), "updated %s", app.Name)
			return nil
		},
	}

	af.register(cmd)
	return cmd
}

func newDeleteCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <url|id>",
		Short: "Remove an app",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.svc.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			ok(cmd.OutOrStdout(), "deleted %s", app.Name)
			return nil
		},
	}
}

func newLikeCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "like <url|id>",
		Short: "Like an app",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.svc.Like(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			ok(cmd.OutOrStdout(), "%s now has %d like(s)", app.Name, app.LikeCount)
			return nil
		},
	}
}

func printAppLine(w io.Writer, a domain.App) {
	top := ""
	if a.IsTop {
		top = color.YellowString(" ★")
	}
	tags := ""
	if len(a.Tags) > 0 {
		tags = " " + color.CyanString("["+strings.Join(a.Tags, ",")+"]")
	}
	fmt.Fprintf(w, "  %-28s  %-17s  %s%s%s\n",
		color.WhiteString(a.Name), a.Category, a.DirectURL, tags, top)
}

func printApp(w io.Writer, a domain.App) {
	header(w, "%s", a.Name)
	field := func(k, v string) {
		if v != "" {
			fmt.Fprintf(w, "  %-12s %s\n", k+":", v)
		}
	}
	field("id", a.ID)
	field("url", a.DirectURL)
	field("description", a.Description)
	field("category", string(a.Category))
	field("tags", strings.Join(a.Tags, ", "))
	if a.Author != nil {
		field("author", strings.TrimSpace(a.Author.Name+" "+a.Author.URL))
	}
	field("status", string(a.Status))
	if a.IsTop {
		field("top", "yes")
	}
	field("views", fmt.Sprint(a.ViewCount))
	field("likes", fmt.Sprint(a.LikeCount))
	field("created", time.UnixMilli(a.CreatedAt).Format(time.RFC3339))
	field("updated", time.UnixMilli(a.UpdatedAt).Format(time.RFC3339))
}

func categoryList() string {
	names := make([]string, len(domain.Categories))
	for i, c := range domain.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
