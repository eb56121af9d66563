package server_test

import (
	"bytes"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

type apiResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (r apiResponse) errorMessage(t *testing.T) string {
	t.Helper()

	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(r.Body, &body))

	return body.Error
}

func send(t *testing.T, method, path string, body any) apiResponse {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		payload, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, fixture.baseURL+path, reader)
	require.NoError(t, err)

	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := fixture.client.Do(req)
	require.NoError(t, err)

	defer func() {
		_ = resp.Body.Close()
	}()

	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return apiResponse{StatusCode: resp.StatusCode, Header: resp.Header, Body: payload}
}

func sendJSON[TResp any](t *testing.T, method, path string, body any, expectedStatus int) TResp {
	t.Helper()

	resp := send(t, method, path, body)
	require.Equal(t, expectedStatus, resp.StatusCode, string(resp.Body))

	var result TResp
	require.NoError(t, json.Unmarshal(resp.Body, &result))

	return result
}

// browserKeys returns p256dh and auth values a browser would hand out.
func browserKeys(t *testing.T) (string, string) {
	t.Helper()

	key, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)

	auth := make([]byte, 16)
	_, err = rand.Read(auth)
	require.NoError(t, err)

	return base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
		base64.RawURLEncoding.EncodeToString(auth)
}
