package executor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLanguage(t *testing.T) {
	assert.Equal(t, "cpp", NormalizeLanguage("C++"))
	assert.Equal(t, "python", NormalizeLanguage(" Python "))
	assert.Equal(t, "go", NormalizeLanguage("go"))
}

func TestVersion(t *testing.T) {
	assert.Equal(t, "10.2.0", Version("cpp"))
	assert.Equal(t, "3.10.0", Version("python"))
	assert.Equal(t, "15.0.2", Version("java"))
	assert.Equal(t, "18.15.0", Version("javascript"))
	assert.Equal(t, "*", Version("rust"))
}

func TestExecute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req executeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "cpp", req.Language)
		assert.Equal(t, "10.2.0", req.Version)
		require.Len(t, req.Files, 1)
		assert.Equal(t, "int main(){}", req.Files[0].Content)

		w.Write([]byte(`{"run":{"code":0,"stdout":"Accepted\n","stderr":"","output":"Accepted\n"}}`))
	}))
	defer srv.Close()

	res, err := NewClient(srv.URL, 0, zerolog.Nop()).Execute(context.Background(), "cpp", "int main(){}")
	require.NoError(t, err)
	assert.Equal(t, "Accepted\n", res.Output)
	assert.Empty(t, res.Stderr)
}

func TestExecuteSurfacesCompileErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"compile":{"code":1,"stderr":"error: expected ';'","output":"error: expected ';'"},"run":{"code":0,"stdout":"","stderr":"","output":""}}`))
	}))
	defer srv.Close()

	res, err := NewClient(srv.URL, 0, zerolog.Nop()).Execute(context.Background(), "cpp", "int main(){")
	require.NoError(t, err)
	assert.Equal(t, "error: expected ';'", res.Stderr)
}

func TestExecuteUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"rust-* runtime is unknown"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, 0, zerolog.Nop()).Execute(context.Background(), "rust", "fn main(){}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "runtime is unknown")
}
