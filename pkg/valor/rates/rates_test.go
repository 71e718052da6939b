package rates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBCBLatest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bcdata.sgs.1178/dados/ultimos/1":
			_, _ = w.Write([]byte(`[{"data":"14/10/2026","valor":"10.40"}]`))
		case "/bcdata.sgs.1/dados/ultimos/1":
			_, _ = w.Write([]byte(`[]`))
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	b := &BCB{BaseURL: srv.URL + "/", HTTPClient: srv.Client()}
	v, err := b.Latest(context.Background(), SelicSeries)
	require.NoError(t, err)
	require.InDelta(t, 0.104, v, 1e-12)

	_, err = b.Latest(context.Background(), 1)
	require.ErrorIs(t, err, ErrNoData)

	_, err = b.Latest(context.Background(), 2)
	require.Error(t, err)

	v, err = WithFallback(b, DefaultRiskFree, nil).Latest(context.Background(), 2)
	require.NoError(t, err)
	require.Equal(t, DefaultRiskFree, v)

	v, err = WithFallback(b, DefaultRiskFree, nil).Latest(context.Background(), SelicSeries)
	require.NoError(t, err)
	require.InDelta(t, 0.104, v, 1e-12)
}
