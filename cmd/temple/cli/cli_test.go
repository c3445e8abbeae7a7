package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writePolicy(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "authz.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestCheckPolicyCommandJSON(t *testing.T) {
	path := writePolicy(t, `
publicEndpoints: [/api/auth]
endpointPermissions:
  /api/admin/users:
    GET: View
  /api/roles:
    GET: View
    POST: Bless
`)
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	code := CheckPolicyCommand(PolicyCheckOptions{Path: path, JSONOutput: true, Stdout: stdout, Stderr: stderr})
	require.Equal(t, 10, code, stderr.String())

	var summary PolicyCheckSummary
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &summary))
	require.False(t, summary.OK)
	require.True(t, summary.Enabled)
	require.Equal(t, []string{"/api/auth"}, summary.PublicEndpoints)
	require.Len(t, summary.Rules, 3)
	require.Equal(t, PolicyRuleLine{Endpoint: "/api/admin/users", Method: "GET", Permission: "View", Page: "/admin/users", Enforced: true}, summary.Rules[0])
	require.Equal(t, PolicyRuleLine{Endpoint: "/api/roles", Method: "POST", Permission: "Bless", Page: "/roles", Enforced: false}, summary.Rules[2])
	require.Len(t, summary.Issues, 1)
}

func TestCheckPolicyCommandHuman(t *testing.T) {
	path := writePolicy(t, "endpointPermissions:\n  /api/donations:\n    DELETE: Delete\n")
	stdout := new(bytes.Buffer)
	code := CheckPolicyCommand(PolicyCheckOptions{Path: path, Stdout: stdout, Stderr: new(bytes.Buffer)})
	require.Equal(t, 0, code)
	require.Contains(t, stdout.String(), "/api/donations")
	require.Contains(t, stdout.String(), "on /donations")
	require.Contains(t, stdout.String(), "No issues found.")
}

func TestCheckPolicyCommandErrors(t *testing.T) {
	stderr := new(bytes.Buffer)
	require.Equal(t, 1, CheckPolicyCommand(PolicyCheckOptions{Stderr: stderr}))
	require.Contains(t, stderr.String(), "--file is required")

	stderr.Reset()
	code := CheckPolicyCommand(PolicyCheckOptions{Path: filepath.Join(t.TempDir(), "nope.yaml"), Stderr: stderr})
	require.Equal(t, 1, code)
	require.True(t, strings.HasPrefix(stderr.String(), "policy check:"))
}

type stubIssuer struct {
	err error
}

func (s stubIssuer) GenerateToken(userID int64, username string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "token-for-" + username, nil
}

func TestIssueTokenCommand(t *testing.T) {
	stdout := new(bytes.Buffer)
	require.Equal(t, 0, IssueTokenCommand(stubIssuer{}, IssueTokenOptions{UserID: 7, Username: "priest", Stdout: stdout}))
	require.Equal(t, "token-for-priest\n", stdout.String())

	stderr := new(bytes.Buffer)
	require.Equal(t, 1, IssueTokenCommand(stubIssuer{}, IssueTokenOptions{Stderr: stderr}))
	require.Equal(t, 1, IssueTokenCommand(stubIssuer{err: errors.New("no secret")}, IssueTokenOptions{UserID: 1, Stderr: stderr}))
	require.Contains(t, stderr.String(), "no secret")
}
