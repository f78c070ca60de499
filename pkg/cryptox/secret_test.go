package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerifySecret(t *testing.T) {
	t.Parallel()

	hash, err := HashSecret("correct horse battery staple")
	require.NoError(t, err)
	require.Contains(t, hash, "$argon2id$")

	require.NoError(t, VerifySecret("correct horse battery staple", hash))
	require.ErrorIs(t, VerifySecret("wrong secret", hash), ErrSecretMismatch)
}

func TestHashSecretSalts(t *testing.T) {
	t.Parallel()

	a, err := HashSecret("same input")
	require.NoError(t, err)
	b, err := HashSecret("same input")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestVerifySecretRejectsMalformedHash(t *testing.T) {
	t.Parallel()

	require.Error(t, VerifySecret("secret", "not-a-phc-string"))
	require.Error(t, VerifySecret("secret", "$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA"))
}
