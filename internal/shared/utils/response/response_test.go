package response

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondThenDecode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	RespondSuccess(c, http.StatusCreated, "Client created", map[string]string{"id": "c-1"})

	env, err := Decode(w.Body.Bytes())
	require.NoError(t, err)
	assert.True(t, env.Succeeded())
	assert.Equal(t, http.StatusCreated, env.StatusCode)
	assert.JSONEq(t, `{"id":"c-1"}`, string(env.Data))
	assert.Empty(t, env.Errors)
}

func TestDecodeRejectsNonEnvelope(t *testing.T) {
	_, err := Decode([]byte(`[1,2,3]`))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"data":{}}`))
	assert.Error(t, err)
}
