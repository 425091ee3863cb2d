package github

import (
	"context"

	gh "github.com/google/go-github/v57/github"
)

const listPageSize = 100

// ListRepos returns the first page of the token owner's repositories,
// most recently updated first.
func (c *Client) ListRepos(ctx context.Context, token string) ([]*gh.Repository, error) {
	repos, resp, err := c.api(token).Repositories.List(ctx, "", &gh.RepositoryListOptions{
		Sort:        "updated",
		ListOptions: gh.ListOptions{PerPage: listPageSize},
	})
	if err != nil {
		return nil, upstream("list repositories", resp, err)
	}
	return repos, nil
}

// BranchList is the branch listing for one repository.
type BranchList struct {
	Branches      []*gh.Branch `json:"branches"`
	DefaultBranch string       `json:"default"`
}

// ListBranches returns the first page of branches of owner/repo along with
// the repository's default branch.
func (c *Client) ListBranches(ctx context.Context, token, owner, repo string) (*BranchList, error) {
	api := c.api(token)

	branches, resp, err := api.Repositories.ListBranches(ctx, owner, repo, &gh.BranchListOptions{
		ListOptions: gh.ListOptions{PerPage: listPageSize},
	})
	if err != nil {
		return nil, upstream("list branches", resp, err)
	}

	info, resp, err := api.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return nil, upstream("get repository", resp, err)
	}

	return &BranchList{Branches: branches, DefaultBranch: info.GetDefaultBranch()}, nil
}
