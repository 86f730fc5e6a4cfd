package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkwell/api/internal/auth"
	"inkwell/api/internal/client"
	"inkwell/api/internal/viewer"
)

func TestLoadProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: http://api.example\nkey: k1\n"), 0o600))

	profile, err := loadProfile(path, true)

	require.NoError(t, err)
	assert.Equal(t, Profile{Server: "http://api.example", Key: "k1"}, profile)
}

func TestLoadProfileMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")

	_, err := loadProfile(path, false)
	assert.NoError(t, err)

	_, err = loadProfile(path, true)
	assert.Error(t, err)
}

func TestProfilePrecedence(t *testing.T) {
	flags := Profile{Key: "from-flag"}
	env := Profile{Key: "from-env", Server: "http://env"}
	file := Profile{Server: "http://file", Public: "http://public-file"}

	got := flags.merge(env, file, Profile{Server: defaultServer, Public: defaultPublic})

	assert.Equal(t, Profile{Server: "http://env", Public: "http://public-file", Key: "from-flag"}, got)
}

func TestParsePostFile(t *testing.T) {
	data := []byte("---\nslug: hello\ntitle: Hello World\ncategory: tech\n---\n\n# Hello\n\nBody.\n")

	post, err := parsePostFile(data)

	require.NoError(t, err)
	assert.Equal(t, client.NewPost{Slug: "hello", Title: "Hello World", Category: "tech", Content: "# Hello\n\nBody.\n"}, post)
}

func TestParsePostFileDerivesSlugFromTitle(t *testing.T) {
	post, err := parsePostFile([]byte("---\ntitle: No Slug_Here!\n---\nbody"))

	require.NoError(t, err)
	assert.Equal(t, "no-slug-here", post.Slug)
}

func TestParsePostFileRequiresSlugOrTitle(t *testing.T) {
	_, err := parsePostFile([]byte("---\ncategory: tech\n---\nbody"))
	assert.Error(t, err)
}

func TestUpdateFromFlagsSendsOnlyChanged(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("title", "", "")
	cmd.Flags().String("category", "", "")
	cmd.Flags().String("content", "", "")
	cmd.Flags().String("content-file", "", "")
	require.NoError(t, cmd.Flags().Parse([]string{"--category", ""}))

	update, err := updateFromFlags(cmd)

	require.NoError(t, err)
	assert.Nil(t, update.Title)
	assert.Nil(t, update.Content)
	require.NotNil(t, update.Category)
	assert.Equal(t, "", *update.Category)
}

func TestPrintPosts(t *testing.T) {
	var buf bytes.Buffer
	posts := []client.PostWithContent{{}}
	posts[0].Slug, posts[0].Title, posts[0].Category, posts[0].Published = "hello", "Hello", "tech", true

	require.NoError(t, printPosts(&buf, posts))

	assert.Contains(t, buf.String(), "SLUG")
	assert.Contains(t, buf.String(), "hello")
	assert.Contains(t, buf.String(), "true")
}

func TestPrintViewAgainstPublicServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sitemap.json":
			_, _ = w.Write([]byte(`{"posts":[{"slug":"a","filename":"a.md","title":"Alpha","category":"tech","published":true}],"categories":["tech"]}`))
		case "/posts/a.md":
			_, _ = w.Write([]byte("# Alpha\n\nFirst paragraph."))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	fetcher, err := viewer.NewHTTPFetcher(srv.URL, srv.Client())
	require.NoError(t, err)
	session := viewer.NewSession(fetcher, zerolog.Nop())

	view := session.Controller.Start(context.Background(), "tech")
	var buf bytes.Buffer
	printView(&buf, session.Controller.Menu(), view)

	out := buf.String()
	assert.Contains(t, out, "[ All | Tech ]")
	assert.Contains(t, out, "Posts (1)")
	assert.Contains(t, out, "- Alpha (#a)")
	assert.Contains(t, out, "First paragraph.")
}

func TestHashKeyOutputIsAccepted(t *testing.T) {
	var buf bytes.Buffer
	hashKeyCmd.SetOut(&buf)

	require.NoError(t, hashKeyCmd.RunE(hashKeyCmd, []string{"s3cret"}))

	hash := strings.TrimSpace(buf.String())
	assert.True(t, auth.NewGate([]string{hash}).Authorize("s3cret"))
}
