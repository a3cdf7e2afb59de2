package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey returns the cache key for a user's login session.
func (r *CacheKeyStruct) UserSessionKey(userID string) string {
	return fmt.Sprintf("login:%s", userID)
}

// ExamBackupKey returns the cache key for a user's recoverable exam backup.
// Keyed singly per user: at most one backup at a time.
func (r *CacheKeyStruct) ExamBackupKey(userID string) string {
	return fmt.Sprintf("user:%s:exam_backup", userID)
}

var CacheKey = NewCacheKeyStruct()
