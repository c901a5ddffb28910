package docs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwaggerDocMatchesRoutes(t *testing.T) {
	var doc struct {
		Paths map[string]map[string]struct {
			Summary string `json:"summary"`
		} `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(SwaggerInfo.ReadDoc()), &doc))

	assert.Equal(t, "Register a new user", doc.Paths["/v1/auth/register"]["post"].Summary)
	assert.Equal(t, "Login", doc.Paths["/v1/auth/login"]["post"].Summary)
	assert.Equal(t, "Current user", doc.Paths["/v1/users/me"]["get"].Summary)
}
