package util

import (
	"golang.org/x/crypto/bcrypt"
)

// GeneratePasswordHash 生成口令的 bcrypt 哈希
func GeneratePasswordHash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	return string(bytes), err
}

// CheckPasswordHash 校验口令与存储的哈希是否匹配
func CheckPasswordHash(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
