package server

import "errors"

// ErrMissingURL is returned when no url was supplied.
var ErrMissingURL = errors.New("server: missing url parameter")

// ErrFetch is returned when the page could not be fetched or parsed.
var ErrFetch = errors.New("server: fetch failed")

// Response bodies for each error bucket. Details stay in the logs.
const (
	usageText        = "Using: /emojify/?url=<url>"
	missingURLText   = "Provide <url> param as request arg, like /?url=https://example.com"
	fetchErrorText   = "Url exception"
	replaceErrorText = "Error while replacing"
)
