package gitimport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"

	"github.com/hugh/go-folio/internal/database/models"
)

var ErrInvalidUsername = errors.New("invalid github username")

const (
	userAgent = "PortfolioAI"
	pageSize  = 10
)

type Importer struct {
	client  *github.Client
	timeout time.Duration
}

// NewImporter authenticates with token when one is set; anonymous calls are
// subject to GitHub's much lower rate limit.
func NewImporter(token string, timeout time.Duration) *Importer {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	httpClient := &http.Client{Timeout: timeout}
	if token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	}

	client := github.NewClient(httpClient)
	client.UserAgent = userAgent
	return &Importer{client: client, timeout: timeout}
}

// WithBaseURL points the importer at another API root, such as GitHub
// Enterprise or a test server.
func (i *Importer) WithBaseURL(raw string) (*Importer, error) {
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	i.client.BaseURL = u
	return i, nil
}

// Projects maps the user's most recently updated repositories, forks
// excluded, to portfolio projects. Only the first page is read.
func (i *Importer) Projects(ctx context.Context, username string) ([]models.Project, error) {
	username = strings.TrimSpace(username)
	if username == "" || strings.ContainsAny(username, "/?# ") {
		return nil, ErrInvalidUsername
	}

	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	repos, _, err := i.client.Repositories.ListByUser(ctx, username, &github.RepositoryListByUserOptions{
		Sort:        "updated",
		ListOptions: github.ListOptions{PerPage: pageSize},
	})
	if err != nil {
		return nil, fmt.Errorf("listing repositories for %s: %w", username, err)
	}

	projects := make([]models.Project, 0, len(repos))
	for _, repo := range repos {
		if repo.GetFork() {
			continue
		}
		projects = append(projects, toProject(repo))
	}
	return projects, nil
}

func toProject(repo *github.Repository) models.Project {
	description := repo.GetDescription()
	if description == "" {
		description = "No description"
	}

	techStack := []string{}
	if lang := repo.GetLanguage(); lang != "" {
		techStack = append(techStack, lang)
	}

	link := repo.GetHTMLURL()
	return models.Project{
		Title:       repo.GetName(),
		Description: description,
		TechStack:   techStack,
		Link:        &link,
		GitHubLink:  &link,
	}
}
