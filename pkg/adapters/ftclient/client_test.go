package ftclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/scriptbridge/pkg/adapters/ftclient"
	"github.com/aretw0/scriptbridge/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Query(t *testing.T) {
	var got domain.SearchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"result": ["d:a", "d:b"], "count": 2, "estimated": 2, "processed": 2, "cursor": 2, "total_time": 3}`))
	}))
	defer srv.Close()

	client := ftclient.New(srv.URL)
	req := domain.NewSearchRequest("tk", `'rdf:type' === 'v-s:Contract'`)
	req.Sort = "'v-s:created' desc"

	res, err := client.Query(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, req, got)
	assert.Equal(t, []string{"d:a", "d:b"}, res.Result)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, int64(3), res.TotalTime)
	assert.Equal(t, domain.Ok, res.ResultCode)
}

func TestClient_QueryRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad query", http.StatusBadRequest)
	}))
	defer srv.Close()

	res, err := ftclient.New(srv.URL).Query(context.Background(), domain.NewSearchRequest("tk", "x"))
	require.NoError(t, err)
	assert.Equal(t, domain.BadRequest, res.ResultCode)
	assert.Empty(t, res.Result)
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := ftclient.New(url).Query(context.Background(), domain.NewSearchRequest("tk", "x"))
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.Equal(t, domain.TransportError, domain.CodeOf(err))
}

func TestClient_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := ftclient.New(srv.URL).Query(context.Background(), domain.NewSearchRequest("tk", "x"))
	assert.ErrorIs(t, err, domain.ErrTransport)
}
