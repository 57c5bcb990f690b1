package utils

const (
	USERNAME_REGEX = `^[\w.@+-]+$`
	SLUG_REGEX     = `^[-a-zA-Z0-9_]+$`

	USERNAME_MAX_LEN = 150
	PASSWORD_MIN_LEN = 8

	DEFAULT_PAGE_LIMIT = 10
	MAX_PAGE_LIMIT     = 100

	CACHE_GROUP_LIST_KEY = "cache:group:list"
	FEED_KEY             = "feed:"
)
