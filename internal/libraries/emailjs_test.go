package libraries

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailJSClientSend(t *testing.T) {
	var got emailJSRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1.0/email/send", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte("OK"))
	}))
	defer srv.Close()

	client := NewEmailJSClient(EmailJSConfig{
		APIURL:     srv.URL + "/",
		ServiceID:  "service_1",
		TemplateID: "template_1",
		PublicKey:  "public",
		PrivateKey: "private",
	})

	err := client.Send(context.Background(), map[string]string{"to_email": "ana@example.com", "board_name": "Launch"})
	require.NoError(t, err)

	assert.Equal(t, "service_1", got.ServiceID)
	assert.Equal(t, "template_1", got.TemplateID)
	assert.Equal(t, "public", got.UserID)
	assert.Equal(t, "private", got.AccessToken)
	assert.Equal(t, "ana@example.com", got.TemplateParams["to_email"])
}

func TestEmailJSClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("The template ID is invalid"))
	}))
	defer srv.Close()

	client := NewEmailJSClient(EmailJSConfig{APIURL: srv.URL})
	err := client.Send(context.Background(), map[string]string{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "emailjs status 400: The template ID is invalid")
}
