package gitimport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reposJSON = `[
	{"name":"folio","description":"Portfolio builder","language":"Go","html_url":"https://github.com/ada/folio","fork":false},
	{"name":"upstream","description":"forked","language":"C","html_url":"https://github.com/ada/upstream","fork":true},
	{"name":"notes","description":null,"language":null,"html_url":"https://github.com/ada/notes","fork":false}
]`

func TestImporter_Projects(t *testing.T) {
	var gotPath, gotQuery, gotUA, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotUA = r.Header.Get("User-Agent")
		gotAuth = r.Header.Get("Authorization")

		if r.URL.Path == "/users/ghost/repos" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"Not Found"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(reposJSON))
	}))
	defer srv.Close()

	imp, err := NewImporter("ghp_test", time.Second).WithBaseURL(srv.URL)
	require.NoError(t, err)

	t.Run("maps non-fork repositories", func(t *testing.T) {
		projects, err := imp.Projects(context.Background(), "ada")
		require.NoError(t, err)

		assert.Equal(t, "/users/ada/repos", gotPath)
		assert.Contains(t, gotQuery, "sort=updated")
		assert.Contains(t, gotQuery, "per_page=10")
		assert.Equal(t, "PortfolioAI", gotUA)
		assert.Equal(t, "Bearer ghp_test", gotAuth)

		require.Len(t, projects, 2)
		assert.Equal(t, "folio", projects[0].Title)
		assert.Equal(t, []string{"Go"}, projects[0].TechStack)
		require.NotNil(t, projects[0].GitHubLink)
		assert.Equal(t, "https://github.com/ada/folio", *projects[0].GitHubLink)

		assert.Equal(t, "No description", projects[1].Description)
		assert.Empty(t, projects[1].TechStack)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := imp.Projects(context.Background(), "ghost")
		assert.Error(t, err)
	})

	t.Run("invalid username", func(t *testing.T) {
		_, err := imp.Projects(context.Background(), "../admin")
		assert.ErrorIs(t, err, ErrInvalidUsername)
	})
}
