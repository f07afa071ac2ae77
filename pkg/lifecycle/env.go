package lifecycle

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/agentplatform/chromactl/pkg/config"
)

// Environment variables read by the ChromaDB server at its own startup.
// The server's contract mandates environment-variable configuration, so this
// is the one place ambient state is produced — and it is handed explicitly
// to the exec call rather than set process-wide.
const (
	EnvCORSAllowOrigins     = "CHROMA_SERVER_CORS_ALLOW_ORIGINS"
	EnvServerHost           = "CHROMA_SERVER_HOST"
	EnvServerHTTPPort       = "CHROMA_SERVER_HTTP_PORT"
	EnvServerGRPCPort       = "CHROMA_SERVER_GRPC_PORT"
	EnvAuthnCredentialsFile = "CHROMA_SERVER_AUTHN_CREDENTIALS_FILE"
	EnvAuthnProvider        = "CHROMA_SERVER_AUTHN_PROVIDER"
	EnvAnonymizedTelemetry  = "ANONYMIZED_TELEMETRY"
)

// Environ builds the child process environment for the server: the parent
// environment plus every CHROMA_* variable the server reads at startup.
//
// The CORS allow-list is always encoded as a JSON array (`["*"]`,
// `["http://localhost:3000"]`, ...) — the only format the server parses
// reliably.
func Environ(srv config.ServerConfig) ([]string, error) {
	cors, err := json.Marshal(srv.CORSOrigins)
	if err != nil {
		return nil, fmt.Errorf("failed to encode CORS origins: %w", err)
	}

	env := append(os.Environ(),
		EnvCORSAllowOrigins+"="+string(cors),
		EnvServerHost+"="+srv.Host,
		EnvServerHTTPPort+"="+strconv.Itoa(srv.HTTPPort),
		EnvServerGRPCPort+"="+strconv.Itoa(srv.GRPCPort),
		EnvAuthnCredentialsFile+"="+srv.AuthnCredentialsFile,
		EnvAuthnProvider+"="+srv.AuthnProvider,
		EnvAnonymizedTelemetry+"="+strconv.FormatBool(srv.Telemetry),
	)

	return env, nil
}
