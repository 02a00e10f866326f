package common

// AccessTokenHeaderName is the HTTP header used to carry the access token
// on outbound requests.
const AccessTokenHeaderName = "X-Access-Token"
