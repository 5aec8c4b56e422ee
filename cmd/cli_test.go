package cmd

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/bnema/allergyscan-cli/internal/adapters/backend/backendtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionPrintsBuildVersion(t *testing.T) {
	home, _ := newCLIFixture(t)

	stdout, _, err := executeCLI(t, home, "version")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", stdout)
}

func TestProtectedCommandRequiresLogin(t *testing.T) {
	home, _ := newCLIFixture(t)

	_, _, err := executeCLI(t, home, "whoami")
	require.Error(t, err)
	assert.ErrorIs(t, err, errLoginRequired)
}

func TestLoginThenWhoamiShowsProfile(t *testing.T) {
	home, _ := newCLIFixture(t)

	stdout, _, err := executeCLI(t, home, "login", "-u", "alice", "-p", "secret")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Logged in as alice")

	stdout, _, err = executeCLI(t, home, "whoami")
	require.NoError(t, err)
	assert.Contains(t, stdout, "alice")
	assert.Contains(t, stdout, "alice@example.com")
	assert.Contains(t, stdout, "allergies: 0")
}

func TestLoginWhileLoggedInIsRedirected(t *testing.T) {
	home, _ := newCLIFixture(t)
	login(t, home)

	_, _, err := executeCLI(t, home, "login", "-u", "alice", "-p", "secret")
	require.Error(t, err)
	assert.ErrorIs(t, err, errAlreadyLoggedIn)

	_, _, err = executeCLI(t, home, "signup", "--email", "a@b.co", "-u", "bob", "-p", "pw", "--confirm-password", "pw")
	assert.ErrorIs(t, err, errAlreadyLoggedIn)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	home, _ := newCLIFixture(t)

	_, _, err := executeCLI(t, home, "login", "-u", "alice", "-p", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Incorrect username or password")

	_, _, err = executeCLI(t, home, "whoami")
	assert.ErrorIs(t, err, errLoginRequired)
}

func TestLoginRequiresCredentials(t *testing.T) {
	home, _ := newCLIFixture(t)

	_, _, err := executeCLI(t, home, "login", "-u", "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "both username/email and password are required")
}

func TestLoginReadsPasswordFromStdin(t *testing.T) {
	home, _ := newCLIFixture(t)

	stdout, _, err := executeCLIWithInput(t, home, strings.NewReader("secret\n"), "login", "-u", "alice", "--password-stdin")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Logged in as alice")

	_, _, err = executeCLIWithInput(t, home, strings.NewReader("secret\n"), "logout")
	require.NoError(t, err)

	_, _, err = executeCLIWithInput(t, home, strings.NewReader("secret\n"), "login", "-u", "alice", "-p", "x", "--password-stdin")
	assert.ErrorIs(t, err, errPasswordStdinConflict)
}

func TestSignupValidatesAndLogsIn(t *testing.T) {
	home, server := newCLIFixture(t)

	_, _, err := executeCLI(t, home, "signup", "--email", "bob@example.com", "-u", "bob", "-p", "pw1", "--confirm-password", "pw2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "passwords do not match")

	_, _, err = executeCLI(t, home, "signup", "--email", "not-an-email", "-u", "bob", "-p", "pw", "--confirm-password", "pw")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid email address")

	stdout, _, err := executeCLI(t, home, "signup", "--email", "bob@example.com", "-u", "bob", "-p", "pw", "--confirm-password", "pw")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Account created, logged in as bob")

	_, ok := server.User("bob")
	assert.True(t, ok)

	stdout, _, err = executeCLI(t, home, "whoami")
	require.NoError(t, err)
	assert.Contains(t, stdout, "bob@example.com")
}

func TestLogoutForgetsSession(t *testing.T) {
	home, _ := newCLIFixture(t)
	login(t, home)

	stdout, _, err := executeCLI(t, home, "logout")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Logged out")

	_, _, err = executeCLI(t, home, "whoami")
	assert.ErrorIs(t, err, errLoginRequired)
}

func TestExpiredAccessTokenIsRefreshedTransparently(t *testing.T) {
	home, server := newCLIFixture(t)
	login(t, home)
	server.ExpireAccessTokens()

	stdout, _, err := executeCLI(t, home, "whoami")
	require.NoError(t, err)
	assert.Contains(t, stdout, "alice@example.com")
	assert.Equal(t, 1, server.RefreshCalls())

	_, _, err = executeCLI(t, home, "whoami")
	require.NoError(t, err)
	assert.Equal(t, 1, server.RefreshCalls())
}

func TestRevokedSessionLogsOut(t *testing.T) {
	home, server := newCLIFixture(t)
	login(t, home)
	server.ExpireAccessTokens()
	server.RevokeRefreshTokens()

	_, _, err := executeCLI(t, home, "whoami")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session expired")
	assert.Contains(t, err.Error(), "ascan login")

	_, _, err = executeCLI(t, home, "whoami")
	assert.ErrorIs(t, err, errLoginRequired)
}

func TestAllergyProfileFlagsCheckResults(t *testing.T) {
	home, server := newCLIFixture(t)
	login(t, home)

	stdout, _, err := executeCLI(t, home, "allergies", "common")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Peanuts")
	assert.Contains(t, stdout, "(Dairy)")

	stdout, _, err = executeCLI(t, home, "allergies", "add", "peanuts", "--severity", "high", "--notes", "carries epipen")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Added Peanuts to your allergies")

	user, ok := server.User("alice")
	require.True(t, ok)
	require.Len(t, user.Allergies, 1)
	assert.Equal(t, "Peanuts", user.Allergies[0].Name)

	stdout, _, err = executeCLI(t, home, "check", "Sugar,", "peanut", "butter,", "milk")
	require.NoError(t, err)
	assert.Contains(t, stdout, "allergens detected: 2")
	assert.Contains(t, stdout, "Peanuts [your allergy]")
	assert.Contains(t, stdout, "Milk")
	assert.Contains(t, stdout, "saved to history")
	assert.Len(t, server.Scans(), 1)

	stdout, _, err = executeCLI(t, home, "allergies", "remove", "1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Removed Peanuts")

	stdout, _, err = executeCLI(t, home, "allergies", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "allergies: 0")
}

func TestAllergiesAddRejectsUnknownSeverity(t *testing.T) {
	home, _ := newCLIFixture(t)
	login(t, home)

	_, _, err := executeCLI(t, home, "allergies", "add", "Milk", "--severity", "extreme")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "severity must be High, Medium or Low")
}

func TestCheckInputValidation(t *testing.T) {
	home, _ := newCLIFixture(t)
	login(t, home)

	_, _, err := executeCLI(t, home, "check", "   ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ingredients text is empty")

	_, _, err = executeCLI(t, home, "check", "--example", "9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--example must be between 1 and 3")

	stdout, _, err := executeCLI(t, home, "check", "--example", "1", "--no-save")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Wheat")
	assert.Contains(t, stdout, "Eggs")
	assert.NotContains(t, stdout, "saved to history")
}

func TestScanUploadsImageAndChecksText(t *testing.T) {
	home, server := newCLIFixture(t)
	login(t, home)
	server.SetOCRText("Skim milk powder, soy lecithin")

	image := filepath.Join(t.TempDir(), "label.png")
	require.NoError(t, os.WriteFile(image, append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...), 0o600))

	stdout, _, err := executeCLI(t, home, "scan", image, "--no-save")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Recognized text:\nSkim milk powder, soy lecithin")
	assert.Contains(t, stdout, "Milk")
	assert.Contains(t, stdout, "Soy")

	upload := server.LastUpload()
	assert.Regexp(t, `^image_[0-9a-f-]+\.jpg$`, upload.FileName)
	assert.Equal(t, "image/png", upload.ContentType)
	assert.Empty(t, server.Scans())
}

func TestScanRejectsMissingImage(t *testing.T) {
	home, _ := newCLIFixture(t)
	login(t, home)

	_, _, err := executeCLI(t, home, "scan", filepath.Join(t.TempDir(), "missing.jpg"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open image")
}

func TestHistorySaveListDelete(t *testing.T) {
	home, server := newCLIFixture(t)
	login(t, home)

	stdout, _, err := executeCLI(t, home, "history", "save", "--product", "Pancake mix", "wheat", "flour,", "egg")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Saved Pancake mix with 2 allergens")

	scans := server.Scans()
	require.Len(t, scans, 1)

	stdout, _, err = executeCLI(t, home, "history", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "scans: 1")
	assert.Contains(t, stdout, "Pancake mix")
	assert.Contains(t, stdout, "allergens: ")

	_, _, err = executeCLI(t, home, "history", "delete", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id must be a positive integer")

	_, _, err = executeCLI(t, home, "history", "delete", strconv.FormatInt(scans[0].ID, 10))
	require.NoError(t, err)
	assert.Empty(t, server.Scans())
}

func TestMedicineLifecycle(t *testing.T) {
	home, _ := newCLIFixture(t)
	login(t, home)

	_, _, err := executeCLI(t, home, "medicine", "add", "--name", "Epinephrine")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "medicine dosage is required")

	stdout, _, err := executeCLI(t, home, "medicine", "add", "--name", "Epinephrine", "--dosage", "0.3mg", "--expires", "2020-01-01")
	require.NoError(t, err)
	id := regexp.MustCompile(`Added medicine (\d+)`).FindStringSubmatch(stdout)
	require.Len(t, id, 2)

	stdout, _, err = executeCLI(t, home, "medicine", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Epinephrine")
	assert.Contains(t, stdout, "[expired]")

	stdout, _, err = executeCLI(t, home, "medicine", "update", id[1], "--expires", "2999-12-31")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Updated medicine "+id[1]+": Epinephrine")

	stdout, _, err = executeCLI(t, home, "medicine", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "2999-12-31")
	assert.NotContains(t, stdout, "[expired]")

	_, _, err = executeCLI(t, home, "medicine", "delete", id[1])
	require.NoError(t, err)

	stdout, _, err = executeCLI(t, home, "medicine", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No medicines saved.")
}

func TestActiveEnvironmentSelectsServer(t *testing.T) {
	home, server := newCLIFixture(t)
	t.Setenv("ASCAN_API_BASE_URL", "")

	_, _, err := executeCLI(t, home, "env", "use", "local")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "environment not found")

	_, _, err = executeCLI(t, home, "env", "add", "local", "ftp://example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base url must use http or https")

	_, _, err = executeCLI(t, home, "env", "add", "local", server.URL+"/")
	require.NoError(t, err)
	_, _, err = executeCLI(t, home, "env", "add", "device", "http://10.0.2.2:8000")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "env", "use", "local")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Using environment local")

	stdout, _, err = executeCLI(t, home, "env", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "* local\t"+server.URL)
	assert.Contains(t, stdout, "  device\thttp://10.0.2.2:8000")
	assert.Contains(t, stdout, "api: "+server.URL)

	login(t, home)
}

func TestEmergencyPrintsSteps(t *testing.T) {
	home, _ := newCLIFixture(t)

	stdout, _, err := executeCLI(t, home, "emergency")
	require.NoError(t, err)
	assert.Contains(t, stdout, "1. Use EpiPen")
	assert.Contains(t, stdout, "2. Call emergency services")
}

func TestInvalidLogLevelFailsBeforeRunning(t *testing.T) {
	home, _ := newCLIFixture(t)

	_, _, err := executeCLI(t, home, "--log-level", "loud", "emergency")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse log level")
}

func TestDebugLogLevelWritesToStderr(t *testing.T) {
	home, _ := newCLIFixture(t)

	stdout, stderr, err := executeCLI(t, home, "--log-level", "debug", "emergency")
	require.NoError(t, err)
	assert.Contains(t, stderr, "resolved api base url")
	assert.NotContains(t, stdout, "resolved api base url")
}

// newCLIFixture starts a fake AllergyScan server with user alice/secret and
// points the CLI at it. PATH is emptied so the token store never reaches a
// real pass(1) store.
func newCLIFixture(t *testing.T) (string, *backendtest.Server) {
	t.Helper()

	server := backendtest.New(t)
	server.AddUser("alice", "secret", "alice@example.com")

	t.Setenv("PATH", t.TempDir())
	t.Setenv("ASCAN_API_BASE_URL", server.URL)
	for _, key := range []string{"ASCAN_CONFIG_DIR", "ASCAN_LOG_LEVEL", "ASCAN_SECRETS_DIR", "ASCAN_PASS_PREFIX", "ASCAN_REQUEST_TIMEOUT", "ASCAN_ENVIRONMENTS_PATH"} {
		t.Setenv(key, "")
	}

	return t.TempDir(), server
}

func login(t *testing.T, home string) {
	t.Helper()

	_, _, err := executeCLI(t, home, "login", "-u", "alice", "-p", "secret")
	require.NoError(t, err)
}

func executeCLI(t *testing.T, home string, args ...string) (string, string, error) {
	t.Helper()
	return executeCLIWithInput(t, home, strings.NewReader(""), args...)
}

func executeCLIWithInput(t *testing.T, home string, stdin io.Reader, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", home)

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}
