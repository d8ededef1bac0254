//go:build e2e

package e2e

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/recipebox/webapp/config"
	"github.com/recipebox/webapp/internal/db"
	"github.com/recipebox/webapp/internal/server"
	"github.com/recipebox/webapp/internal/services"
	"github.com/recipebox/webapp/internal/storage"
	"github.com/recipebox/webapp/internal/store"
	"github.com/recipebox/webapp/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const migrationsURL = "file://../../db/migrations"

var dbConn *sql.DB

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	container, dsn, err := startPostgres(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start postgres: %v\n", err)
		os.Exit(1)
	}

	if err := db.MigrateUp(migrationsURL, dsn); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		_ = container.Terminate(context.Background())
		os.Exit(1)
	}

	dbConn, err = sql.Open("postgres", dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open database: %v\n", err)
		_ = container.Terminate(context.Background())
		os.Exit(1)
	}

	code := m.Run()

	_ = dbConn.Close()
	_ = container.Terminate(context.Background())
	os.Exit(code)
}

func startPostgres(ctx context.Context) (testcontainers.Container, string, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_DB":       "recipebox_test",
				"POSTGRES_USER":     "recipebox",
				"POSTGRES_PASSWORD": "password",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, "", err
	}

	host, err := container.Host(ctx)
	if err != nil {
		return container, "", err
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return container, "", err
	}

	dsn := db.DSN(config.DatabaseConfig{
		Host:     host,
		Port:     port.Int(),
		User:     "recipebox",
		Password: "password",
		DBName:   "recipebox_test",
	})
	return container, dsn, nil
}

func newApp(t *testing.T) *httptest.Server {
	t.Helper()

	objects, err := storage.NewFromConfig(context.Background(), config.StorageConfig{
		Backend:  "local",
		LocalDir: t.TempDir(),
	})
	require.NoError(t, err)

	recipes := store.NewRecipeRepository(dbConn)
	router, err := server.NewRouter(server.Deps{
		Recipes:        services.NewRecipeService(recipes, objects, objects, nil, zap.NewNop()),
		Favorites:      services.NewFavoriteService(store.NewFavoriteRepository(dbConn)),
		Users:          services.NewUserServiceWithCost(store.NewUserRepository(dbConn), bcrypt.MinCost),
		Images:         objects,
		DB:             dbConn,
		SessionSecret:  "e2e-secret",
		MaxUploadBytes: 1 << 20,
	})
	require.NoError(t, err)

	app := httptest.NewServer(router)
	t.Cleanup(app.Close)
	return app
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar, Timeout: 10 * time.Second}
}

func postForm(t *testing.T, client *http.Client, target string, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := client.PostForm(target, form)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func registerAndLogin(t *testing.T, client *http.Client, baseURL, username string) {
	t.Helper()

	resp, body := postForm(t, client, baseURL+"/register", url.Values{
		"username":         {username},
		"email":            {username + "@example.com"},
		"password":         {"testpass123!"},
		"confirm_password": {"testpass123!"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "/login", resp.Request.URL.Path)
	require.Contains(t, body, "Account created successfully! Please log in.")

	resp, body = postForm(t, client, baseURL+"/login", url.Values{
		"username": {username},
		"password": {"testpass123!"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "/recipes", resp.Request.URL.Path)
	require.Contains(t, body, "Login successful!")
}

func latestRecipeID(t *testing.T, title string) int {
	t.Helper()
	var id int
	err := dbConn.QueryRow(`SELECT id FROM recipes WHERE title = $1 ORDER BY id DESC LIMIT 1`, title).Scan(&id)
	require.NoError(t, err)
	return id
}

func TestRecipeLifecycle(t *testing.T) {
	app := newApp(t)
	client := newClient(t)
	username := fmt.Sprintf("cook_%d", time.Now().UnixNano())
	registerAndLogin(t, client, app.URL, username)

	title := fmt.Sprintf("Pancakes %d", time.Now().UnixNano())
	resp, body := postForm(t, client, app.URL+"/recipes/add", url.Values{
		"title":        {title},
		"description":  {"Fluffy"},
		"ingredients":  {"2 cups flour, 1 tsp salt, milk"},
		"instructions": {"Mix and fry."},
		"meal_type":    {"Breakfast"},
		"category":     {"Sweet"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Recipe added successfully!")
	assert.Contains(t, body, title)

	id := latestRecipeID(t, title)

	resp, err := client.Get(fmt.Sprintf("%s/recipes/%d", app.URL, id))
	require.NoError(t, err)
	detail, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(detail), "flour")

	favoriteURL := fmt.Sprintf("%s/recipes/favorite/%d", app.URL, id)
	for _, want := range []bool{true, false} {
		resp, err := client.Post(favoriteURL, "application/x-www-form-urlencoded", nil)
		require.NoError(t, err)
		var parsed struct {
			IsFavorited bool `json:"is_favorited"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, want, parsed.IsFavorited)
	}

	resp, body = postForm(t, client, fmt.Sprintf("%s/recipes/delete/%d", app.URL, id), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Recipe deleted successfully!")

	var count int
	require.NoError(t, dbConn.QueryRow(`SELECT COUNT(*) FROM recipes WHERE id = $1`, id).Scan(&count))
	assert.Zero(t, count)
}

func TestOtherUsersCannotEdit(t *testing.T) {
	app := newApp(t)
	owner := newClient(t)
	registerAndLogin(t, owner, app.URL, fmt.Sprintf("owner_%d", time.Now().UnixNano()))

	title := fmt.Sprintf("Soup %d", time.Now().UnixNano())
	resp, _ := postForm(t, owner, app.URL+"/recipes/add", url.Values{
		"title":        {title},
		"ingredients":  {"water, salt"},
		"instructions": {"Boil."},
		"meal_type":    {"Dinner"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	id := latestRecipeID(t, title)

	intruder := newClient(t)
	registerAndLogin(t, intruder, app.URL, fmt.Sprintf("intruder_%d", time.Now().UnixNano()))

	resp, body := postForm(t, intruder, fmt.Sprintf("%s/recipes/delete/%d", app.URL, id), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/recipes", resp.Request.URL.Path)
	assert.NotContains(t, body, "Recipe deleted successfully!")

	var count int
	require.NoError(t, dbConn.QueryRow(`SELECT COUNT(*) FROM recipes WHERE id = $1`, id).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestDuplicateRegistrationIsRejected(t *testing.T) {
	app := newApp(t)
	username := fmt.Sprintf("dup_%d", time.Now().UnixNano())
	registerAndLogin(t, newClient(t), app.URL, username)

	resp, body := postForm(t, newClient(t), app.URL+"/register", url.Values{
		"username":         {username},
		"email":            {"other_" + username + "@example.com"},
		"password":         {"testpass123!"},
		"confirm_password": {"testpass123!"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/register", resp.Request.URL.Path)
	assert.Contains(t, body, "Username already exists.")
}

func TestSearchMatchesWildcardsLiterally(t *testing.T) {
	ctx := context.Background()
	users := store.NewUserRepository(dbConn)
	recipes := store.NewRecipeRepository(dbConn)

	suffix := time.Now().UnixNano()
	user, err := users.Create(ctx, userFixture(fmt.Sprintf("pct_%d", suffix)))
	require.NoError(t, err)

	marker := fmt.Sprintf("m%d", suffix)
	_, err = recipes.Create(ctx, recipeFixture(user.ID, marker+" 100% rye"))
	require.NoError(t, err)
	_, err = recipes.Create(ctx, recipeFixture(user.ID, marker+" 100 rye"))
	require.NoError(t, err)

	found, err := recipes.Search(ctx, marker+" 100%", 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, marker+" 100% rye", found[0].Title)
	assert.False(t, found[0].IsFavorite)

	found, err = recipes.Search(ctx, strings.ToUpper(marker), 0)
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestFavoritesCascadeWithRecipe(t *testing.T) {
	ctx := context.Background()
	users := store.NewUserRepository(dbConn)
	recipes := store.NewRecipeRepository(dbConn)
	favorites := store.NewFavoriteRepository(dbConn)

	suffix := time.Now().UnixNano()
	owner, err := users.Create(ctx, userFixture(fmt.Sprintf("own_%d", suffix)))
	require.NoError(t, err)
	fan, err := users.Create(ctx, userFixture(fmt.Sprintf("fan_%d", suffix)))
	require.NoError(t, err)

	recipe, err := recipes.Create(ctx, recipeFixture(owner.ID, fmt.Sprintf("Stew %d", suffix)))
	require.NoError(t, err)

	favorited, err := favorites.Toggle(ctx, fan.ID, recipe.ID)
	require.NoError(t, err)
	assert.True(t, favorited)

	seen, err := recipes.Get(ctx, recipe.ID, fan.ID)
	require.NoError(t, err)
	assert.True(t, seen.IsFavorite)

	listed, err := favorites.ListForUser(ctx, fan.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, recipe.ID, listed[0].ID)

	require.NoError(t, recipes.Delete(ctx, recipe.ID, owner.ID))

	listed, err = favorites.ListForUser(ctx, fan.ID)
	require.NoError(t, err)
	assert.Empty(t, listed)

	_, err = favorites.Toggle(ctx, fan.ID, recipe.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func userFixture(username string) types.User {
	return types.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "not-a-real-hash",
	}
}

func recipeFixture(ownerID int, title string) types.Recipe {
	return types.Recipe{
		UserID:       ownerID,
		Title:        title,
		Ingredients:  []types.Ingredient{{Quantity: "1", Name: "rye flour"}},
		Instructions: "Bake.",
		MealType:     "Lunch",
	}
}
