package common

// AuthHeaderName is the HTTP header carrying the bearer access token on
// authenticated requests.
const AuthHeaderName = "Authorization"

// BearerPrefix is the expected scheme prefix inside AuthHeaderName.
const BearerPrefix = "Bearer "
