package github

import (
	"context"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v57/github"

	"github.com/richinex/staxchange/model"
)

// ExportRepo creates a new public repository named name under the token
// owner's account and commits each file to it, one commit per file.
// It returns the repository's web URL.
func (c *Client) ExportRepo(ctx context.Context, token, name string, files []model.SourceFile) (string, error) {
	api := c.api(token)

	created, resp, err := api.Repositories.Create(ctx, "", &gh.Repository{
		Name:     gh.String(name),
		Private:  gh.Bool(false),
		AutoInit: gh.Bool(true),
	})
	if err != nil {
		return "", upstream("create repository "+name, resp, err)
	}
	owner := created.GetOwner().GetLogin()
	// GitHub may normalise the requested name, e.g. "my repo" to "my-repo".
	repo := created.GetName()
	if repo == "" {
		repo = name
	}

	for _, f := range files {
		path := strings.TrimPrefix(f.Path, "/")
		_, resp, err := api.Repositories.CreateFile(ctx, owner, repo, escapePath(path), &gh.RepositoryContentFileOptions{
			Message: gh.String("add " + path),
			Content: []byte(f.Content),
		})
		if err != nil {
			return "", upstream("create file "+path, resp, err)
		}
	}

	c.logger.Info("exported repository", "repo", created.GetFullName(), "files", len(files))
	return created.GetHTMLURL(), nil
}

// escapePath escapes each segment of a slash-separated path.
func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
