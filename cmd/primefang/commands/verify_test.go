package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/primefang/internal/sieve"
)

// writePrimeFile writes one value per line and returns the path.
func writePrimeFile(t *testing.T, lines []string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "primes.txt")
	content := strings.Join(lines, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func formatPrimes(primes []uint64) []string {
	lines := make([]string, len(primes))
	for i, p := range primes {
		lines[i] = strconv.FormatUint(p, 10)
	}

	return lines
}

func TestVerify_ValidPrefixPasses(t *testing.T) {
	t.Parallel()

	path := writePrimeFile(t, formatPrimes(sieve.Classic(200)))

	cmd := NewVerifyCommand()
	cmd.SetArgs([]string{"--no-color", path})

	var out bytes.Buffer

	cmd.SetOut(&out)

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "valid prime prefix")
}

func TestVerify_DetectsComposite(t *testing.T) {
	t.Parallel()

	path := writePrimeFile(t, []string{"2", "3", "5", "7", "9"})

	cmd := NewVerifyCommand()
	cmd.SetArgs([]string{"--no-color", path})
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))

	err := cmd.Execute()
	require.ErrorIs(t, err, ErrVerificationFailed)
}

func TestVerify_ScanCountsDefects(t *testing.T) {
	t.Parallel()

	vc := &VerifyCommand{}

	report, err := vc.scan(strings.NewReader("2\n3\n7\n5\nabc\n9\n"))
	require.NoError(t, err)

	assert.True(t, report.failed())
	assert.Equal(t, uint64(6), report.lines)
	assert.Equal(t, uint64(2), report.missing, "5 absent before 7, then 7 absent between 5 and 9")
	assert.Equal(t, uint64(1), report.misordered, "5 after 7")
	assert.Equal(t, uint64(1), report.malformed)
	assert.Equal(t, uint64(1), report.composites, "9 is composite")
	assert.Equal(t, uint64(7), report.highest)
}

func TestVerify_MissingFirstPrime(t *testing.T) {
	t.Parallel()

	vc := &VerifyCommand{}

	report, err := vc.scan(strings.NewReader("3\n5\n"))
	require.NoError(t, err)

	assert.Equal(t, uint64(1), report.missing, "file must start at 2")
}

func TestVerify_SkipGapsIgnoresMissingPrimes(t *testing.T) {
	t.Parallel()

	vc := &VerifyCommand{skipGaps: true}

	report, err := vc.scan(strings.NewReader("2\n3\n7\n"))
	require.NoError(t, err)

	assert.False(t, report.failed())
	assert.Zero(t, report.missing)
}

func TestVerify_MissingFileFails(t *testing.T) {
	t.Parallel()

	cmd := NewVerifyCommand()
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "absent.txt")})
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))

	require.Error(t, cmd.Execute())
}

func TestPrimeChecker_KnownValues(t *testing.T) {
	t.Parallel()

	checker := newPrimeChecker()

	for _, p := range sieve.Classic(500) {
		assert.True(t, checker.isPrime(p), "%d", p)
	}

	for _, n := range []uint64{0, 1, 4, 9, 25, 91, 221, 341} {
		assert.False(t, checker.isPrime(n), "%d", n)
	}
}
