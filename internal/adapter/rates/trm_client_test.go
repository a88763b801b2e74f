package rates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, status int, body string) *TRMClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewTRMClient(srv.URL, time.Second)
}

func TestLatestRate(t *testing.T) {
	c := serve(t, http.StatusOK, `[{"unidad":"COP","valor":"4123.45","vigenciadesde":"2025-06-01T00:00:00.000","vigenciahasta":"2025-06-01T00:00:00.000"}]`)

	rate, err := c.LatestRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "COP", rate.Unit)
	assert.Equal(t, "4123.45", rate.Value.String())
	assert.Equal(t, "2025-06-01T00:00:00.000", rate.ValidFrom)
}

func TestLatestRate_Failures(t *testing.T) {
	ctx := context.Background()

	_, err := serve(t, http.StatusServiceUnavailable, "").LatestRate(ctx)
	assert.Error(t, err)

	_, err = serve(t, http.StatusOK, `[]`).LatestRate(ctx)
	assert.Error(t, err)

	_, err = serve(t, http.StatusOK, `[{"unidad":"COP","valor":"0"}]`).LatestRate(ctx)
	assert.Error(t, err)

	_, err = serve(t, http.StatusOK, `{"not":"a list"}`).LatestRate(ctx)
	assert.Error(t, err)
}
