package lifecycle

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strings"
	"time"
)

// ChromaDB requires Python 3.8 or newer.
const (
	minPythonMajor = 3
	minPythonMinor = 8
)

// Check names, in the order they run. Preflight is fail-fast: the first
// unmet condition aborts the run.
const (
	CheckRuntime = "python runtime"
	CheckClient  = "chromadb client"
	CheckDataDir = "data directory"
	CheckPort    = "port availability"
)

// CheckResult reports the outcome of a single preflight check.
type CheckResult struct {
	Name   string `json:"name" yaml:"name"`
	Detail string `json:"detail" yaml:"detail"`
	Err    error  `json:"-" yaml:"-"`
}

// OK reports whether the check passed.
func (r CheckResult) OK() bool { return r.Err == nil }

// commandRunner abstracts subprocess execution so preflight checks can be
// tested without a Python installation.
type commandRunner func(ctx context.Context, name string, args ...string) (string, error)

func runCommand(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	return strings.TrimSpace(string(out)), err
}

// CheckPreconditions verifies, in order: the Python runtime version, the
// chromadb client library, the data directory, and the target port. It
// stops at the first failure and returns the results gathered so far; the
// last result carries the failure.
//
// Side effect: creates the data directory if absent.
func (s *Supervisor) CheckPreconditions(ctx context.Context) ([]CheckResult, error) {
	if err := s.require(StateNotStarted); err != nil {
		return nil, err
	}

	checks := []func(context.Context) CheckResult{
		s.checkRuntime,
		s.checkClientLibrary,
		s.checkDataDir,
		s.checkPort,
	}

	var results []CheckResult
	for _, check := range checks {
		result := check(ctx)
		results = append(results, result)
		if !result.OK() {
			s.setState(StateFailed)
			return results, &PreconditionError{Check: result.Name, Err: result.Err}
		}
	}

	s.setState(StatePrechecked)
	return results, nil
}

// checkRuntime verifies the Python interpreter exists and is recent enough.
func (s *Supervisor) checkRuntime(ctx context.Context) CheckResult {
	result := CheckResult{Name: CheckRuntime}

	out, err := s.run(ctx, s.cfg.Server.Python, "--version")
	if err != nil {
		result.Err = fmt.Errorf("%s not found: %w", s.cfg.Server.Python, err)
		return result
	}

	major, minor, err := parsePythonVersion(out)
	if err != nil {
		result.Err = err
		return result
	}

	if major < minPythonMajor || (major == minPythonMajor && minor < minPythonMinor) {
		result.Err = fmt.Errorf("Python %d.%d or newer required, found %d.%d",
			minPythonMajor, minPythonMinor, major, minor)
		return result
	}

	s.mu.Lock()
	s.pythonVersion = fmt.Sprintf("%d.%d", major, minor)
	s.mu.Unlock()
	result.Detail = out
	return result
}

// checkClientLibrary verifies the chromadb package imports and records its
// version.
func (s *Supervisor) checkClientLibrary(ctx context.Context) CheckResult {
	result := CheckResult{Name: CheckClient}

	out, err := s.run(ctx, s.cfg.Server.Python, "-c", "import chromadb; print(chromadb.__version__)")
	if err != nil {
		result.Err = fmt.Errorf("chromadb not importable (pip install chromadb): %w", err)
		return result
	}

	s.mu.Lock()
	s.chromaVersion = out
	s.mu.Unlock()
	result.Detail = "chromadb " + out
	return result
}

// checkDataDir creates the persistence directory if absent and reuses it
// otherwise. The directory is never cleaned up.
func (s *Supervisor) checkDataDir(_ context.Context) CheckResult {
	result := CheckResult{Name: CheckDataDir}
	dir := s.cfg.Server.DataDir

	info, err := os.Stat(dir)
	switch {
	case err == nil && !info.IsDir():
		result.Err = fmt.Errorf("%s exists but is not a directory", dir)
	case err == nil:
		result.Detail = fmt.Sprintf("exists: %s", dir)
	default:
		if err := os.MkdirAll(dir, 0755); err != nil {
			result.Err = fmt.Errorf("cannot create %s: %w", dir, err)
			return result
		}
		result.Detail = fmt.Sprintf("created: %s", dir)
	}

	return result
}

// checkPort verifies nothing is already serving on the target port. A
// responding heartbeat means another server instance owns the port; any
// other accepted TCP connection means the port is taken by a different
// process. Either way the run aborts before a second server is spawned.
func (s *Supervisor) checkPort(ctx context.Context) CheckResult {
	result := CheckResult{Name: CheckPort}
	addr := net.JoinHostPort(s.cfg.Server.Host, fmt.Sprintf("%d", s.cfg.Server.HTTPPort))

	probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if _, err := s.hb.Beat(probeCtx); err == nil {
		result.Err = fmt.Errorf("a server is already answering the heartbeat on %s", addr)
		return result
	}

	conn, err := net.DialTimeout("tcp", addr, time.Second)
	if err == nil {
		_ = conn.Close()
		result.Err = fmt.Errorf("port %d is already in use on %s", s.cfg.Server.HTTPPort, s.cfg.Server.Host)
		return result
	}

	result.Detail = fmt.Sprintf("port %d is available", s.cfg.Server.HTTPPort)
	return result
}

// parsePythonVersion extracts major.minor from `python --version` output,
// e.g. "Python 3.11.4".
func parsePythonVersion(out string) (major, minor int, err error) {
	fields := strings.Fields(out)
	if len(fields) < 2 || fields[0] != "Python" {
		return 0, 0, fmt.Errorf("unrecognized interpreter version output: %q", out)
	}

	if _, err := fmt.Sscanf(fields[1], "%d.%d", &major, &minor); err != nil {
		return 0, 0, fmt.Errorf("cannot parse interpreter version %q: %w", fields[1], err)
	}

	return major, minor, nil
}
