package common

// AuthorizationHeaderName carries the bearer access token on inbound requests.
const AuthorizationHeaderName = "Authorization"

// APIKeyHeaderName carries the static API key for operator endpoints.
const APIKeyHeaderName = "X-API-Key"

// UnknownClient is recorded for device fields that could not be determined.
const UnknownClient = "Unknown"
