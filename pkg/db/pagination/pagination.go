package pagination

import (
	"encoding/base64"
	"strconv"
	"strings"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// Pagination binds the common page query parameters.
type Pagination struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size"`
}

// PageInfo is embedded in list responses.
type PageInfo struct {
	NextPageToken string `json:"next_page_token,omitempty"`
	TotalSize     int64  `json:"total_size,omitempty"`
}

// Limit clamps the requested page size into the supported range.
func Limit(size int32) int {
	if size <= 0 {
		return defaultPageSize
	}
	if size > maxPageSize {
		return maxPageSize
	}
	return int(size)
}

// EncodeCursor builds an opaque page token from the last row ID.
func EncodeCursor(lastID int64) string {
	if lastID == 0 {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatInt(lastID, 10)))
}

// DecodeCursor returns the row ID encoded in a page token, or 0 when absent.
func DecodeCursor(token string) (int64, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, true
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, false
	}
	id, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}
