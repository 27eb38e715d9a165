package identity

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterHandler(t *testing.T) {
	svc, _ := newTestService(&stubProvisioner{})
	app := fiber.New()
	app.Post("/users", NewHandler(svc).Register)

	post := func(body string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	resp := post(`{"name":"Ada","email":"ada@example.com","password":"secret1","document_number":"620.758.220-93","type":"individual"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created UserResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, "62075822093", created.DocumentNumber)
	assert.Equal(t, "individual", created.Type)
	assert.NotEmpty(t, created.ID)

	resp = post(`{"name":"Ada","email":"ada@example.com","password":"secret1","document_number":"62075822093","type":"individual"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	for _, body := range []string{
		`{"name":"","email":"x@example.com","password":"secret1","document_number":"65835879040","type":"individual"}`,
		`{"name":"X","email":"nope","password":"secret1","document_number":"65835879040","type":"individual"}`,
		`{"name":"X","email":"x@example.com","password":"123","document_number":"65835879040","type":"individual"}`,
		`{"name":"X","email":"x@example.com","password":"secret1","document_number":"65835879040","type":"robot"}`,
		`{"name":"X","email":"x@example.com","password":"secret1","document_number":"65835879041","type":"individual"}`,
		`{"name":"X","email":"x@example.com","password":"secret1","document_number":"65835879040","type":"organization"}`,
	} {
		assert.Equal(t, http.StatusBadRequest, post(body).StatusCode, body)
	}
}
