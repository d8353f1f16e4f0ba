package scriptbridge

// Version is the release reported by the CLI and the HTTP adapter.
const Version = "0.1.0"
