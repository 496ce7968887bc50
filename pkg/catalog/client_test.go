package catalog_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/illmade-knight/go-catpedia/pkg/catalog"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAPI(t *testing.T, handler http.Handler) *catalog.APIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := catalog.NewAPIDefaults()
	cfg.BaseURL = srv.URL
	cfg.APIKey = "test-key"
	client, err := catalog.NewAPIClient(cfg, srv.Client(), zerolog.Nop())
	require.NoError(t, err)
	return client
}

func TestAPIClient_ListBreeds(t *testing.T) {
	var gotKey string
	client := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		assert.Equal(t, "/breeds", r.URL.Path)
		_, _ = w.Write([]byte(`[
			{"id":"abys","name":"Abyssinian","description":"Active","temperament":"Active, Energetic","reference_image_id":"0XYvRd7oD","energy_level":5,"affection_level":5},
			{"id":"pers","name":"Persian","description":"Calm"}
		]`))
	}))

	breeds, err := client.ListBreeds(context.Background())

	require.NoError(t, err)
	require.Len(t, breeds, 2)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "Abyssinian", breeds[0].Name)
	assert.Equal(t, 5, breeds[0].EnergyLevel)
	assert.Equal(t, "https://cdn2.thecatapi.com/images/0XYvRd7oD.jpg", breeds[0].ImageURL())
	assert.Equal(t, 0, breeds[1].EnergyLevel, "absent traits decode as zero")
	assert.Empty(t, breeds[1].ImageURL())
}

func TestAPIClient_GetBreedAndImages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/breeds/siam", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(catalog.Breed{
			ID: "siam", Name: "Siamese", Origin: "Thailand",
			Weight: &catalog.Weight{Metric: "4 - 7"}, ChildFriendly: 4,
		})
	})
	mux.HandleFunc("/images/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "siam", r.URL.Query().Get("breed_ids"))
		assert.Equal(t, "3", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`[{"id":"a","url":"https://cdn/a.jpg"},{"id":"b","url":"https://cdn/b.jpg"}]`))
	})
	client := newTestAPI(t, mux)
	ctx := context.Background()

	breed, err := client.GetBreed(ctx, "siam")
	require.NoError(t, err)
	assert.Equal(t, "Thailand", breed.Origin)
	require.NotNil(t, breed.Weight)
	assert.Equal(t, "4 - 7", breed.Weight.Metric)

	images, err := client.SearchImages(ctx, "siam", 3)
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, "https://cdn/a.jpg", images[0].URL)
}

func TestAPIClient_Failures(t *testing.T) {
	t.Run("Non-2xx status", func(t *testing.T) {
		client := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))

		_, err := client.ListBreeds(context.Background())

		require.Error(t, err)
		assert.ErrorIs(t, err, catalog.ErrFetchFailed)
		var statusErr *catalog.StatusError
		require.True(t, errors.As(err, &statusErr))
		assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	})

	t.Run("Undecodable body", func(t *testing.T) {
		client := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>maintenance</html>"))
		}))

		_, err := client.ListBreeds(context.Background())

		assert.ErrorIs(t, err, catalog.ErrFetchFailed)
	})

	t.Run("Transport failure", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		cfg := catalog.NewAPIDefaults()
		cfg.BaseURL = srv.URL
		srv.Close()
		client, err := catalog.NewAPIClient(cfg, nil, zerolog.Nop())
		require.NoError(t, err)

		_, err = client.ListBreeds(context.Background())

		assert.ErrorIs(t, err, catalog.ErrFetchFailed)
		var statusErr *catalog.StatusError
		assert.False(t, errors.As(err, &statusErr), "transport failures carry no status")
	})
}

func TestNewAPIClient_RequiresBaseURL(t *testing.T) {
	_, err := catalog.NewAPIClient(&catalog.APIConfig{}, nil, zerolog.Nop())
	require.Error(t, err)
}
