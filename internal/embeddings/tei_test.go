package embeddings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTEIClient(t *testing.T) {
	tests := []struct {
		name       string
		baseURL    string
		wantErr    bool
		errMessage string
	}{
		{name: "valid http", baseURL: "http://localhost:8080"},
		{name: "valid https with trailing slash", baseURL: "https://tei.example.com/"},
		{name: "empty base URL", baseURL: "", wantErr: true, errMessage: "base URL required"},
		{name: "not http", baseURL: "ftp://localhost:8080", wantErr: true, errMessage: "must be http"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, err := NewTEIClient(TEIConfig{BaseURL: tt.baseURL, Model: DefaultModel})
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidConfig))
				assert.Contains(t, err.Error(), tt.errMessage)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, service)
		})
	}
}

// newTEIServer fakes the TEI /embed endpoint, returning one 3-d vector per
// input whose first component is the input's length.
func newTEIServer(t *testing.T, wantKey string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if wantKey != "" && r.Header.Get("Authorization") != "Bearer "+wantKey {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req struct {
			Inputs   json.RawMessage `json:"inputs"`
			Truncate bool            `json:"truncate"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		var inputs []string
		if err := json.Unmarshal(req.Inputs, &inputs); err != nil {
			var single string
			if err := json.Unmarshal(req.Inputs, &single); err != nil {
				http.Error(w, "bad inputs", http.StatusUnprocessableEntity)
				return
			}
			inputs = []string{single}
		}

		vectors := make([][]float32, len(inputs))
		for i, in := range inputs {
			vectors[i] = []float32{float32(len(in)), 1, 0}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(vectors)
	}))
}

func TestTEIClient_EmbedDocuments(t *testing.T) {
	srv := newTEIServer(t, "")
	defer srv.Close()

	service, err := NewTEIClient(TEIConfig{BaseURL: srv.URL, Model: DefaultModel})
	require.NoError(t, err)

	vectors, err := service.EmbedDocuments(context.Background(), []string{"a", "bbb"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{1, 1, 0}, vectors[0])
	assert.Equal(t, []float32{3, 1, 0}, vectors[1])
}

func TestTEIClient_EmbedQuery(t *testing.T) {
	srv := newTEIServer(t, "secret")
	defer srv.Close()

	service, err := NewTEIClient(TEIConfig{BaseURL: srv.URL, APIKey: "secret"})
	require.NoError(t, err)

	vector, err := service.EmbedQuery(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{5, 1, 0}, vector)
}

func TestTEIClient_Errors(t *testing.T) {
	srv := newTEIServer(t, "secret")
	defer srv.Close()

	ctx := context.Background()

	t.Run("empty input", func(t *testing.T) {
		service, err := NewTEIClient(TEIConfig{BaseURL: srv.URL})
		require.NoError(t, err)

		_, err = service.EmbedDocuments(ctx, nil)
		assert.True(t, errors.Is(err, ErrEmptyInput))

		_, err = service.EmbedQuery(ctx, "")
		assert.True(t, errors.Is(err, ErrEmptyInput))
	})

	t.Run("non-200 status", func(t *testing.T) {
		service, err := NewTEIClient(TEIConfig{BaseURL: srv.URL, APIKey: "wrong"})
		require.NoError(t, err)

		_, err = service.EmbedQuery(ctx, "hello")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrEmbeddingFailed))
		assert.Contains(t, err.Error(), "status 401")
	})

	t.Run("cancelled context", func(t *testing.T) {
		service, err := NewTEIClient(TEIConfig{BaseURL: srv.URL, APIKey: "secret"})
		require.NoError(t, err)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err = service.EmbedDocuments(cancelled, []string{"x"})
		assert.Error(t, err)
	})

	t.Run("vector count mismatch", func(t *testing.T) {
		short := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`[[1,2,3]]`))
		}))
		defer short.Close()

		service, err := NewTEIClient(TEIConfig{BaseURL: short.URL})
		require.NoError(t, err)

		_, err = service.EmbedDocuments(ctx, []string{"a", "b"})
		assert.True(t, errors.Is(err, ErrEmbeddingFailed))
	})

	t.Run("closed", func(t *testing.T) {
		service, err := NewTEIClient(TEIConfig{BaseURL: srv.URL, APIKey: "secret"})
		require.NoError(t, err)
		require.NoError(t, service.Close())

		_, err = service.EmbedQuery(ctx, "hello")
		assert.ErrorIs(t, err, ErrProviderClosed)
	})
}
