package detect

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const (
	accessTokenKey = "cursorAuth/accessToken"
	cliTimeout     = 5 * time.Second
)

type runFunc func(ctx context.Context, name string, args ...string) (string, error)

// stateDBReader reads the access token from Cursor's state.vscdb:
//   - in-process through go-sqlite3, read-only, one connection per lookup
//   - through the sqlite3 CLI when the driver cannot open or query the file
//     (e.g. a CGO_ENABLED=0 build)
type stateDBReader struct {
	path    string
	binary  string
	run     runFunc
	timeout time.Duration
}

func newStateDBReader(path, binary string) *stateDBReader {
	return &stateDBReader{path: path, binary: binary, run: runCommand, timeout: cliTimeout}
}

func (r *stateDBReader) Find(ctx context.Context) (string, error) {
	if r.path == "" || !fileExists(r.path) {
		return "", describeMissing(r.path)
	}

	token, err := r.queryInProcess(ctx)
	if err == nil {
		return token, nil
	}
	if errors.Is(err, errNotFound) {
		return "", err
	}
	log.Printf("[detect] state.vscdb in-process read failed, trying %s CLI: %v", r.binary, err)

	return r.queryCLI(ctx)
}

func (r *stateDBReader) queryInProcess(ctx context.Context) (string, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", r.path))
	if err != nil {
		return "", fmt.Errorf("opening state DB: %w", err)
	}
	defer db.Close()

	var token string
	err = db.QueryRowContext(ctx, `SELECT value FROM ItemTable WHERE key = ?`, accessTokenKey).Scan(&token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%s in state DB: %w", accessTokenKey, errNotFound)
		}
		return "", fmt.Errorf("querying access token: %w", err)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("%s is empty: %w", accessTokenKey, errNotFound)
	}
	return token, nil
}

func (r *stateDBReader) queryCLI(ctx context.Context) (string, error) {
	cliCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := fmt.Sprintf("SELECT value FROM ItemTable WHERE key = '%s';", accessTokenKey)
	out, err := r.run(cliCtx, r.binary, "-readonly", r.path, query)
	if err != nil {
		if errors.Is(cliCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%s timed out after %s", r.binary, r.timeout)
		}
		return "", fmt.Errorf("%s: %w", r.binary, err)
	}
	token := strings.TrimSpace(out)
	if token == "" {
		return "", fmt.Errorf("%s via CLI: %w", accessTokenKey, errNotFound)
	}
	return token, nil
}

func runCommand(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%w: %s", err, msg)
		}
		return "", err
	}
	return stdout.String(), nil
}
