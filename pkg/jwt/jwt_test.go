package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgjwt "github.com/jhoicas/Tagihan-api/pkg/jwt"
)

const secret = "test-secret-key-for-unit-tests"

func TestGenerateAndParse(t *testing.T) {
	tok, err := pkgjwt.Generate(secret, "admin", "operator", "tagihan-test", 60)
	require.NoError(t, err)

	sub, role, err := pkgjwt.Parse(secret, tok)

	require.NoError(t, err)
	assert.Equal(t, "admin", sub)
	assert.Equal(t, "operator", role)
}

func TestParse_Expired(t *testing.T) {
	tok, err := pkgjwt.Generate(secret, "admin", "admin", "tagihan-test", -1)
	require.NoError(t, err)

	_, _, err = pkgjwt.Parse(secret, tok)
	assert.Error(t, err)
}

func TestParse_WrongSecret(t *testing.T) {
	tok, err := pkgjwt.Generate(secret, "admin", "admin", "tagihan-test", 60)
	require.NoError(t, err)

	_, _, err = pkgjwt.Parse("otro-secret", tok)
	assert.Error(t, err)
}

func TestGenerate_EmptySecret(t *testing.T) {
	_, err := pkgjwt.Generate("", "admin", "admin", "tagihan-test", 60)
	assert.Error(t, err)
}
