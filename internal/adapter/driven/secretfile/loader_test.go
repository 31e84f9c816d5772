package secretfile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/leakwatch/internal/adapter/driven/secretfile"
	"github.com/ericfisherdev/leakwatch/internal/domain/model"
)

// writeSecretsFile writes content to a temp file and returns its path.
func writeSecretsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "secrets.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_ParsesEntries(t *testing.T) {
	path := writeSecretsFile(t, `# monitored secrets
api_key|abcd1234|test-note

token|tok_live_0123456789
aliyun_ak | LTAI5tExampleKey | prod access key
`)

	list, err := secretfile.Load(path)

	require.NoError(t, err)
	require.Len(t, list.Items, 3)
	assert.Zero(t, list.Skipped)

	assert.Equal(t, model.SecretTypeAPIKey, list.Items[0].Type)
	assert.Equal(t, "abcd1234", list.Items[0].Value)
	assert.Equal(t, "test-note", list.Items[0].Note)

	// Two-field form has no note.
	assert.Equal(t, model.SecretTypeToken, list.Items[1].Type)
	assert.Empty(t, list.Items[1].Note)

	// Fields are trimmed.
	assert.Equal(t, model.SecretTypeAliyunAK, list.Items[2].Type)
	assert.Equal(t, "LTAI5tExampleKey", list.Items[2].Value)
	assert.Equal(t, "prod access key", list.Items[2].Note)
}

func TestLoad_RejectsShortValueAndContinues(t *testing.T) {
	path := writeSecretsFile(t, `custom|ab
api_key|abcd1234|kept
`)

	list, err := secretfile.Load(path)

	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, 1, list.Skipped)
	assert.Equal(t, "abcd1234", list.Items[0].Value)
}

func TestLoad_UnknownTypeDegradesToCustom(t *testing.T) {
	path := writeSecretsFile(t, "stripe_key|sk_live_abcd1234|billing\n")

	list, err := secretfile.Load(path)

	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, model.SecretTypeCustom, list.Items[0].Type)
	assert.Equal(t, "sk_live_abcd1234", list.Items[0].Value)
}

func TestLoad_MissingDelimiter(t *testing.T) {
	path := writeSecretsFile(t, `just a value with no pipes
api_key|abcd1234
`)

	list, err := secretfile.Load(path)

	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, 1, list.Skipped)
}

func TestLoad_EmptyFile(t *testing.T) {
	path := writeSecretsFile(t, "# only comments\n\n")

	_, err := secretfile.Load(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no entries")
}

func TestLoad_AllLinesInvalid(t *testing.T) {
	path := writeSecretsFile(t, "custom|ab\ncustom|cd\n")

	_, err := secretfile.Load(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no valid entries")
	assert.Contains(t, err.Error(), "2 rejected")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := secretfile.Load(filepath.Join(t.TempDir(), "absent.txt"))
	require.Error(t, err)
}

func TestCountByType(t *testing.T) {
	path := writeSecretsFile(t, `api_key|abcd1234
api_key|efgh5678
password|hunter22
`)

	list, err := secretfile.Load(path)
	require.NoError(t, err)

	counts := list.CountByType()
	assert.Equal(t, 2, counts[model.SecretTypeAPIKey])
	assert.Equal(t, 1, counts[model.SecretTypePassword])
}
