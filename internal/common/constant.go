package common

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "sessionid"

// PlaceholderUnavailable is rendered for absent profile values in reports.
const PlaceholderUnavailable = "No disponible"
