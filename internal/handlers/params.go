package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// pathID parses a uuid path parameter, answering 400 when malformed.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// pageParams reads page (default 1) and page_size (default 0, meaning the
// configured default) from the query string.
func pageParams(c *gin.Context) (page, pageSize int, ok bool) {
	page, ok = intQuery(c, "page", 1)
	if !ok {
		return 0, 0, false
	}
	pageSize, ok = intQuery(c, "page_size", 0)
	return page, pageSize, ok
}

func intQuery(c *gin.Context, name string, fallback int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, name+" must be an integer")
		return 0, false
	}
	return n, true
}

func boolQuery(c *gin.Context, name string) (bool, bool) {
	raw := c.Query(name)
	if raw == "" {
		return false, true
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		badRequest(c, name+" must be true or false")
		return false, false
	}
	return b, true
}

// tagsQuery accepts both ?tags=a,b and ?tags=a&tags=b.
func tagsQuery(c *gin.Context) []string {
	var tags []string
	for _, raw := range c.QueryArray("tags") {
		tags = append(tags, strings.Split(raw, ",")...)
	}
	return tags
}
