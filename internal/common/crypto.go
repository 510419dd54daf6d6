package common

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
)

const CodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func CalculateHash(key string, inputs ...interface{}) string {
	if len(inputs) == 0 {
		return ""
	}
	h := hmac.New(sha256.New, []byte(key))
	for _, val := range inputs {
		switch v := val.(type) {
		case []byte:
			h.Write(v)
		default:
			h.Write([]byte(fmt.Sprintf("%v", v)))
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// GenerateCode returns n characters drawn uniformly from CodeAlphabet.
func GenerateCode(n int) (string, error) {
	max := big.NewInt(int64(len(CodeAlphabet)))
	buf := make([]byte, n)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = CodeAlphabet[idx.Int64()]
	}
	return string(buf), nil
}
