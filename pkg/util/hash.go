package util

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
)

// noteHashSeparator sits between title and body so that moving characters
// across the boundary always changes the digest.
// noteHashSeparator 位于标题与正文之间，保证字符跨界移动时摘要必然变化。
const noteHashSeparator = "\n---\n"

// EncodeNoteHash returns the content fingerprint of a note snapshot:
// SHA-256 over title + separator + body, as lowercase hex. Deterministic,
// used both for version de-duplication and for textual identity checks.
// EncodeNoteHash 返回笔记快照的内容指纹：对 标题+分隔符+正文 做 SHA-256，
// 输出小写十六进制。结果确定，用于版本去重与文本一致性判断。
func EncodeNoteHash(title, body string) string {
	h := sha256.New()
	h.Write([]byte(title))
	h.Write([]byte(noteHashSeparator))
	h.Write([]byte(body))
	return hex.EncodeToString(h.Sum(nil))
}

// EncodeMD5 对字符串进行MD5编码
// str: 待编码的字符串
// 返回值: MD5编码后的32位十六进制字符串
func EncodeMD5(str string) string {
	h := md5.New()
	h.Write([]byte(str))
	return hex.EncodeToString(h.Sum(nil))
}
